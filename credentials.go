package hawk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Credential is a shared secret identified by an opaque key ID. The
// algorithm is fixed at creation and never changes for the lifetime of
// the credential. The engine never stores credentials; they are supplied
// per request through a CredentialsLookupFunc.
type Credential struct {
	// ID is the opaque key identifier sent on the wire.
	ID string

	// Key is the raw shared secret. Must be non-empty.
	Key []byte

	// Algorithm selects the digest family for MAC and payload hashes.
	Algorithm Algorithm
}

// validate reports whether the credential is usable for MAC computation.
func (c *Credential) validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil credential", ErrInvalidCredential)
	}

	if len(c.Key) == 0 {
		return fmt.Errorf("%w: empty key", ErrInvalidCredential)
	}

	if !c.Algorithm.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, c.Algorithm)
	}

	return nil
}

// CredentialsLookupFunc resolves a key ID to its credential record. It is
// the external collaborator for credential storage: return
// ErrUnknownCredential (or an error wrapping it) when the ID is not
// registered, and any other error for a transient lookup failure, which
// the verifier reports as ErrStoreUnavailable. The callback may block;
// it receives the request context.
type CredentialsLookupFunc func(ctx context.Context, keyID string) (*Credential, error)

// NonceCheckFunc atomically checks and records a nonce. It is the
// external collaborator for replay protection and must provide
// check-and-set semantics in a single call: return nil when the
// (keyID, nonce, ts) combination is fresh and now recorded,
// ErrNonceReplay when it was seen before, and any other error for a
// store failure, which the verifier reports as ErrStoreUnavailable
// rather than as a replay. Implementations must be safe for concurrent
// use across requests sharing the store.
type NonceCheckFunc func(ctx context.Context, keyID, nonce string, ts time.Time) error

// GenerateNonce returns a random opaque nonce for client-side use.
func GenerateNonce() string {
	return uuid.NewString()
}
