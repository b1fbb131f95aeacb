package hawk

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// CalculatePayloadHash computes the base64 content hash included in the
// normalized string when payload validation is in use. The hashed form
// is three newline-terminated lines: the versioned payload tag, the
// normalized content type, and the raw payload.
func CalculatePayloadHash(contentType string, payload []byte, alg Algorithm) (string, error) {
	hashNew := alg.hashNew()
	if hashNew == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	h := hashNew()
	h.Write([]byte("hawk." + headerVersion + ".payload\n"))
	h.Write([]byte(normalizeContentType(contentType)))
	h.Write([]byte{'\n'})
	h.Write(payload)
	h.Write([]byte{'\n'})

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// normalizeContentType lowercases the media type and drops parameters
// after ";" so that equivalent Content-Type headers hash identically.
func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return strings.ToLower(strings.TrimSpace(contentType))
}
