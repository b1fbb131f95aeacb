package hawk

import (
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// Algorithm identifies the digest family a credential uses for both its
// HMAC and its payload hashes.
type Algorithm string

const (
	// SHA1 selects HMAC-SHA-1 and SHA-1 payload hashes. Supported for
	// interoperability with existing deployments; prefer SHA256.
	SHA1 Algorithm = "sha1"

	// SHA256 selects HMAC-SHA-256 and SHA-256 payload hashes.
	SHA256 Algorithm = "sha256"
)

// String returns the algorithm name as it appears in credential records.
func (a Algorithm) String() string {
	return string(a)
}

// Valid reports whether the algorithm is one of the supported values.
func (a Algorithm) Valid() bool {
	return a.hashNew() != nil
}

// hashNew returns the hash constructor for the algorithm, or nil when
// the algorithm is not supported.
func (a Algorithm) hashNew() func() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New
	case SHA256:
		return sha256.New
	default:
		return nil
	}
}
