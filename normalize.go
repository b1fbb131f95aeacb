package hawk

import (
	"fmt"
	"strconv"
	"strings"
)

// Auth types tagging the normalized string. The versioned prefix and the
// exact line layout are a wire-compatibility contract shared with every
// other Hawk implementation; computing a different byte sequence for the
// same inputs makes the MAC non-interoperable.
const (
	authTypeHeader   = "header"
	authTypeResponse = "response"
	authTypeBewit    = "bewit"

	headerVersion = "1"
)

// normalized builds the deterministic string the MAC is computed over:
// one component per line, each line (including the last) terminated by a
// single newline, in the fixed order
//
//	hawk.1.<type>
//	<timestamp>
//	<nonce>
//	<METHOD>
//	<resource>
//	<host>
//	<port>
//	<payload hash or empty>
//	<ext or empty>
//
// followed by app and dlg lines only when app is present. No escaping is
// applied; any field containing an embedded newline would corrupt the
// layout and is rejected as malformed instead.
func normalized(authType string, art *Artifact) (string, error) {
	fields := map[string]string{
		"nonce":    art.Nonce,
		"method":   art.Method,
		"resource": art.Resource,
		"host":     art.Host,
		"port":     art.Port,
		"hash":     art.Hash,
		"ext":      art.Ext,
		"app":      art.App,
		"dlg":      art.Dlg,
	}

	for name, value := range fields {
		if strings.ContainsRune(value, '\n') {
			return "", fmt.Errorf("%w: embedded newline in %s", ErrMalformedHeader, name)
		}
	}

	var b strings.Builder

	b.WriteString("hawk." + headerVersion + "." + authType + "\n")
	b.WriteString(strconv.FormatInt(art.Timestamp, 10))
	b.WriteByte('\n')
	b.WriteString(art.Nonce)
	b.WriteByte('\n')
	b.WriteString(strings.ToUpper(art.Method))
	b.WriteByte('\n')
	b.WriteString(art.Resource)
	b.WriteByte('\n')
	b.WriteString(strings.ToLower(art.Host))
	b.WriteByte('\n')
	b.WriteString(art.Port)
	b.WriteByte('\n')
	b.WriteString(art.Hash)
	b.WriteByte('\n')
	b.WriteString(art.Ext)
	b.WriteByte('\n')

	if art.App != "" {
		b.WriteString(art.App)
		b.WriteByte('\n')
		b.WriteString(art.Dlg)
		b.WriteByte('\n')
	}

	return b.String(), nil
}
