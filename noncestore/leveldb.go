package noncestore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vitalvas/hawk"
)

const (
	nonceKeyPrefix    = "nonce:"
	observedKeyPrefix = "observed:"
)

// LevelDB is a durable nonce store. Each nonce is written under two
// keys: a membership key for the replay check and a time-indexed key so
// Prune can drop old entries with a range scan instead of a full walk.
type LevelDB struct {
	db  *leveldb.DB
	now func() time.Time

	// mu serializes check-and-record so concurrent duplicates cannot
	// both pass between the membership read and the write.
	mu sync.Mutex
}

// OpenLevelDB opens (or creates) the store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	if path == "" {
		return nil, fmt.Errorf("noncestore: leveldb path required")
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("noncestore: open leveldb: %w", err)
	}

	return &LevelDB{db: db, now: time.Now}, nil
}

// Close releases the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Check implements hawk.NonceCheckFunc. The store must not be shared
// across processes pointing at different databases; within one process
// the check-and-record pair runs under a single lock.
func (l *LevelDB) Check(_ context.Context, keyID, nonce string, ts time.Time) error {
	composite := compositeKey(keyID, nonce, ts)
	nonceKey := []byte(nonceKeyPrefix + composite)

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Get(nonceKey, nil)
	switch {
	case err == nil:
		return hawk.ErrNonceReplay
	case errors.Is(err, leveldb.ErrNotFound):
	default:
		return fmt.Errorf("noncestore: load nonce: %w", err)
	}

	nanos := l.now().UTC().UnixNano()

	batch := new(leveldb.Batch)
	batch.Put(nonceKey, encodeUnixNano(nanos))
	batch.Put([]byte(observedKey(nanos, composite)), nil)

	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("noncestore: record nonce: %w", err)
	}

	return nil
}

// Prune removes nonces observed before cutoff. Callers run it
// periodically; the TTL is theirs to choose, but it must exceed the
// server's timestamp skew window or pruned nonces become replayable.
func (l *LevelDB) Prune(ctx context.Context, cutoff time.Time) error {
	end := []byte(observedKey(cutoff.UTC().UnixNano(), ""))

	iter := l.db.NewIterator(&util.Range{
		Start: []byte(observedKeyPrefix),
		Limit: end,
	}, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)

	for iter.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		key := iter.Key()
		batch.Delete(append([]byte(nil), key...))

		if composite, ok := parseObservedKey(key); ok {
			batch.Delete([]byte(nonceKeyPrefix + composite))
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("noncestore: prune scan: %w", err)
	}

	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("noncestore: prune: %w", err)
	}

	return nil
}

func compositeKey(keyID, nonce string, ts time.Time) string {
	return fmt.Sprintf("%s|%d|%s", keyID, ts.Unix(), nonce)
}

// observedKey orders entries by observation time: a fixed-width
// big-endian hex timestamp prefix keeps lexicographic order equal to
// chronological order.
func observedKey(nanos int64, composite string) string {
	return fmt.Sprintf("%s%016x|%s", observedKeyPrefix, uint64(nanos), composite)
}

func parseObservedKey(key []byte) (string, bool) {
	s := string(key)

	if len(s) < len(observedKeyPrefix)+17 {
		return "", false
	}

	rest := s[len(observedKeyPrefix):]
	if rest[16] != '|' {
		return "", false
	}

	return rest[17:], true
}

func encodeUnixNano(nanos int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(nanos))

	return buf
}
