package hawk

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// calculateMAC computes the base64 keyed digest over the normalized
// string for the given auth type, using the credential's algorithm.
func calculateMAC(cred *Credential, authType string, art *Artifact) (string, error) {
	if err := cred.validate(); err != nil {
		return "", err
	}

	base, err := normalized(authType, art)
	if err != nil {
		return "", err
	}

	mac := hmac.New(cred.Algorithm.hashNew(), cred.Key)
	mac.Write([]byte(base))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// calculateTimestampMAC authenticates a server-reported timestamp so a
// client can trust the clock correction carried on a stale-timestamp
// rejection.
func calculateTimestampMAC(cred *Credential, ts int64) (string, error) {
	if err := cred.validate(); err != nil {
		return "", err
	}

	mac := hmac.New(cred.Algorithm.hashNew(), cred.Key)
	fmt.Fprintf(mac, "hawk.%s.ts\n%d\n", headerVersion, ts)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// fixedTimeEqual compares two strings in constant time. Both sides are
// reduced to fixed-length digests first so that neither a length
// mismatch nor the position of the first differing byte is observable
// through timing.
func fixedTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))

	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
