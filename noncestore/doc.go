// Package noncestore provides replay-protection stores implementing the
// atomic check-and-record contract of hawk.NonceCheckFunc.
//
// Memory keeps nonces in process with a TTL window and a capacity bound.
// LevelDB persists them, surviving restarts, with a time index for
// pruning. Both are safe for concurrent use; pass their Check method as
// the server's NonceCheck:
//
//	store := noncestore.NewMemory(noncestore.MemoryConfig{})
//	server, err := hawk.NewServer(hawk.ServerConfig{
//	    Credentials: lookup,
//	    NonceCheck:  store.Check,
//	})
package noncestore
