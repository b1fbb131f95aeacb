// Package hawk implements the Hawk HTTP authentication scheme: a
// symmetric-key MAC protocol that authenticates HTTP requests (and
// optionally responses) without ever sending the shared secret on the
// wire.
//
// The package covers the full protocol surface: building and verifying
// Authorization headers, signing and validating Server-Authorization
// response headers, optional payload hashing, replay protection via
// timestamps and nonces, and bewits (single-shot, URL-embeddable
// credentials for pre-signed links).
//
// # Credentials
//
// A Credential pairs an opaque key ID with a shared secret and a digest
// algorithm:
//
//	cred := &hawk.Credential{
//	    ID:        "dh37fgj492je",
//	    Key:       []byte("werxhqb98rpaxn39848xrunpaw3489ruxnpaw3489ruxnpaw3489ruxnpaw389"),
//	    Algorithm: hawk.SHA256,
//	}
//
// # Signing Requests
//
// Use a Client to produce Authorization header values, or wrap an HTTP
// client with Transport to sign every outgoing request automatically:
//
//	client, err := hawk.NewClient(hawk.ClientConfig{Credential: cred})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	httpClient := &http.Client{
//	    Transport: hawk.NewTransport(nil, client, hawk.TransportConfig{
//	        HashPayload:      true,
//	        ValidateResponse: true,
//	    }),
//	}
//
// # Verifying Requests
//
// A Server validates incoming requests against a credentials lookup
// callback and an optional nonce store:
//
//	server, err := hawk.NewServer(hawk.ServerConfig{
//	    Credentials: lookup,
//	    NonceCheck:  store.Check,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cred, artifact, err := server.Authenticate(r.Context(), r)
//
// Middleware wraps the same validation as a net/http middleware and
// exposes the authenticated credential through the request context.
//
// # Error Taxonomy
//
// Every verification failure is a typed outcome: sentinel errors such as
// ErrInvalidMAC, ErrNonceReplay and ErrStaleTimestamp can be matched with
// errors.Is, and OutcomeOf collapses any error into an Outcome for
// exhaustive handling. Stale-timestamp failures carry the server's clock
// (see StaleTimestampError) so clients can correct drift and retry.
//
// # Bewits
//
// A bewit grants time-limited access to a single GET resource through a
// query parameter instead of a header:
//
//	url, err := client.BewitURL("https://example.com/file?a=1", 5*time.Minute, "")
//
// The server side accepts it with Server.AuthenticateBewit, which strips
// the bewit parameter before recomputing the MAC.
package hawk
