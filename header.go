package hawk

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute sets accepted per header kind. Attribute order on the wire
// is not semantically meaningful.
var (
	requestAttributes = map[string]bool{
		"id": true, "ts": true, "nonce": true, "hash": true,
		"ext": true, "mac": true, "app": true, "dlg": true,
	}

	serverAttributes = map[string]bool{
		"mac": true, "hash": true, "ext": true,
	}

	wwwAuthenticateAttributes = map[string]bool{
		"ts": true, "tsm": true, "error": true,
	}
)

// ParseRequestHeader parses an Authorization header value of the form
//
//	Hawk id="...", ts="...", nonce="...", mac="...", hash="...", ext="..."
//
// into an Artifact. The id, ts, nonce and mac attributes are mandatory;
// a missing one is reported as a malformed header naming the field.
// The request coordinates (method, resource, host, port) are not on the
// wire and must be filled in from the request before MAC verification.
func ParseRequestHeader(value string) (*Artifact, error) {
	attrs, err := parseAttributes(value, requestAttributes)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{"id", "ts", "nonce", "mac"} {
		if attrs[required] == "" {
			return nil, fmt.Errorf("%w: missing %s attribute", ErrMalformedHeader, required)
		}
	}

	ts, err := strconv.ParseInt(attrs["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ts attribute", ErrMalformedHeader)
	}

	if attrs["dlg"] != "" && attrs["app"] == "" {
		return nil, fmt.Errorf("%w: dlg attribute without app", ErrMalformedHeader)
	}

	return &Artifact{
		ID:        attrs["id"],
		Timestamp: ts,
		Nonce:     attrs["nonce"],
		Hash:      attrs["hash"],
		Ext:       attrs["ext"],
		App:       attrs["app"],
		Dlg:       attrs["dlg"],
		MAC:       attrs["mac"],
	}, nil
}

// ParseServerHeader parses a Server-Authorization header value, which
// carries the {mac, hash, ext} subset. The mac attribute is mandatory.
func ParseServerHeader(value string) (*Artifact, error) {
	attrs, err := parseAttributes(value, serverAttributes)
	if err != nil {
		return nil, err
	}

	if attrs["mac"] == "" {
		return nil, fmt.Errorf("%w: missing mac attribute", ErrMalformedHeader)
	}

	return &Artifact{
		MAC:  attrs["mac"],
		Hash: attrs["hash"],
		Ext:  attrs["ext"],
	}, nil
}

// ParseWWWAuthenticate parses a WWW-Authenticate challenge carrying the
// server's timestamp feedback on a stale-timestamp rejection. It returns
// the server timestamp and the timestamp MAC authenticating it; ts is
// zero when the challenge carries no feedback (a bare "Hawk").
func ParseWWWAuthenticate(value string) (ts int64, tsm string, err error) {
	if strings.EqualFold(strings.TrimSpace(value), "Hawk") {
		return 0, "", nil
	}

	attrs, err := parseAttributes(value, wwwAuthenticateAttributes)
	if err != nil {
		return 0, "", err
	}

	if attrs["ts"] == "" {
		return 0, "", nil
	}

	ts, err = strconv.ParseInt(attrs["ts"], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: invalid ts attribute", ErrMalformedHeader)
	}

	return ts, attrs["tsm"], nil
}

// RequestHeader serializes the artifact into an Authorization header
// value. Optional attributes are omitted when empty.
func (art *Artifact) RequestHeader() string {
	var b strings.Builder

	b.WriteString(`Hawk id=`)
	b.WriteString(quoteAttr(art.ID))
	fmt.Fprintf(&b, `, ts="%d"`, art.Timestamp)
	b.WriteString(`, nonce=`)
	b.WriteString(quoteAttr(art.Nonce))

	if art.Hash != "" {
		b.WriteString(`, hash=`)
		b.WriteString(quoteAttr(art.Hash))
	}

	if art.Ext != "" {
		b.WriteString(`, ext=`)
		b.WriteString(quoteAttr(art.Ext))
	}

	b.WriteString(`, mac=`)
	b.WriteString(quoteAttr(art.MAC))

	if art.App != "" {
		b.WriteString(`, app=`)
		b.WriteString(quoteAttr(art.App))

		if art.Dlg != "" {
			b.WriteString(`, dlg=`)
			b.WriteString(quoteAttr(art.Dlg))
		}
	}

	return b.String()
}

// serverHeader serializes a Server-Authorization header value.
func serverHeader(mac, hash, ext string) string {
	var b strings.Builder

	b.WriteString(`Hawk mac=`)
	b.WriteString(quoteAttr(mac))

	if hash != "" {
		b.WriteString(`, hash=`)
		b.WriteString(quoteAttr(hash))
	}

	if ext != "" {
		b.WriteString(`, ext=`)
		b.WriteString(quoteAttr(ext))
	}

	return b.String()
}

// parseAttributes parses the scheme-prefixed, comma-separated key="value"
// attribute list shared by all Hawk headers. Unknown and duplicate
// attribute keys are rejected; surrounding whitespace is tolerated.
func parseAttributes(value string, allowed map[string]bool) (map[string]string, error) {
	rest, err := cutScheme(value)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string)

	for _, entry := range splitQuoteAware(rest, ',') {
		key, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q has no value", ErrMalformedHeader, entry)
		}

		key = strings.TrimSpace(key)
		raw = strings.TrimSpace(raw)

		if !allowed[key] {
			return nil, fmt.Errorf("%w: unknown attribute %q", ErrMalformedHeader, key)
		}

		if _, dup := attrs[key]; dup {
			return nil, fmt.Errorf("%w: duplicate attribute %q", ErrMalformedHeader, key)
		}

		val, err := unquoteAttr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %v", ErrMalformedHeader, key, err)
		}

		attrs[key] = val
	}

	return attrs, nil
}

// cutScheme strips the leading "Hawk" scheme token, case-insensitively.
func cutScheme(value string) (string, error) {
	trimmed := strings.TrimSpace(value)

	if len(trimmed) < 4 || !strings.EqualFold(trimmed[:4], "Hawk") {
		return "", fmt.Errorf("%w: missing Hawk scheme", ErrMalformedHeader)
	}

	rest := trimmed[4:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", fmt.Errorf("%w: missing Hawk scheme", ErrMalformedHeader)
	}

	return strings.TrimSpace(rest), nil
}

// quoteAttr produces a quoted attribute value. Only backslash and double
// quote are escaped, so escaped values round-trip losslessly through
// unquoteAttr.
func quoteAttr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' || ch == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(ch)
	}

	b.WriteByte('"')

	return b.String()
}

// unquoteAttr removes the surrounding double quotes and unescapes \\ and
// \" sequences.
func unquoteAttr(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("value not quoted")
	}

	s = s[1 : len(s)-1]

	if !strings.Contains(s, `\`) {
		if strings.Contains(s, `"`) {
			return "", fmt.Errorf("unescaped quote in value")
		}

		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			if i == len(s) {
				return "", fmt.Errorf("trailing backslash in value")
			}
		}

		b.WriteByte(s[i])
	}

	return b.String(), nil
}

// splitQuoteAware splits s on delim while respecting "..." quoted
// regions. Backslash-escaped quotes (\") inside quoted strings are
// handled. Each resulting part is trimmed of whitespace and empty parts
// are skipped.
func splitQuoteAware(s string, delim byte) []string {
	var result []string
	var part strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inQuote {
			if ch == '\\' && i+1 < len(s) {
				part.WriteByte(ch)
				i++
				part.WriteByte(s[i])
				continue
			}

			if ch == '"' {
				inQuote = false
			}

			part.WriteByte(ch)
			continue
		}

		if ch == '"' {
			inQuote = true
			part.WriteByte(ch)
			continue
		}

		if ch == delim {
			p := strings.TrimSpace(part.String())
			if p != "" {
				result = append(result, p)
			}

			part.Reset()
			continue
		}

		part.WriteByte(ch)
	}

	if p := strings.TrimSpace(part.String()); p != "" {
		result = append(result, p)
	}

	return result
}
