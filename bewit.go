package hawk

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BewitParam is the query parameter conventionally carrying the bewit.
const BewitParam = "bewit"

// Bewit issues a URL-embeddable token granting time-limited GET access
// to a single resource. The expiry is absolute: once past it the bewit
// is permanently invalid, with no renewal. Bewits carry no nonce; their
// only replay bound is the expiry, so consumption tracking, if desired,
// is the caller's responsibility.
func (c *Client) Bewit(rawURL string, ttl time.Duration, ext string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	desc := descriptorFromURL(u)
	exp := c.now().Unix() + int64(ttl/time.Second)

	art := &Artifact{
		ID:        c.cred.ID,
		Timestamp: exp,
		Method:    desc.Method,
		Resource:  desc.Resource,
		Host:      desc.Host,
		Port:      desc.Port,
		Ext:       ext,
	}

	mac, err := calculateMAC(c.cred, authTypeBewit, art)
	if err != nil {
		return "", err
	}

	// The backslash delimiter cannot appear in base64 output, so the
	// joined form is unambiguous even though ext is free text.
	token := c.cred.ID + `\` + strconv.FormatInt(exp, 10) + `\` + mac + `\` + ext

	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// BewitURL issues a bewit for rawURL and returns the URL with the bewit
// query parameter appended, ready to hand out as a pre-signed link.
func (c *Client) BewitURL(rawURL string, ttl time.Duration, ext string) (string, error) {
	token, err := c.Bewit(rawURL, ttl, ext)
	if err != nil {
		return "", err
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}

	return rawURL + sep + BewitParam + "=" + token, nil
}

// AuthenticateBewit validates the bewit query parameter of an incoming
// request. Only GET and HEAD requests are eligible, and the expiry is
// checked before any MAC work. The bewit parameter is stripped from the
// resource before the MAC is recomputed, since the issuer signed the URL
// without it.
func (s *Server) AuthenticateBewit(ctx context.Context, r *http.Request) (*Credential, *Artifact, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return nil, nil, fmt.Errorf("%w: bewit requires GET or HEAD", ErrMalformedHeader)
	}

	if r.Header.Get("Authorization") != "" {
		return nil, nil, fmt.Errorf("%w: bewit and Authorization header are mutually exclusive", ErrMalformedHeader)
	}

	token, resource, err := extractBewit(r.URL)
	if err != nil {
		return nil, nil, err
	}

	id, exp, mac, ext, err := decodeBewit(token)
	if err != nil {
		return nil, nil, err
	}

	// Fail fast on expiry before doing cryptographic work. now == exp
	// is still valid; the expiry is inclusive.
	if s.now().Unix() > exp {
		return nil, nil, ErrBewitExpired
	}

	host, port := requestHostPort(r)

	art := &Artifact{
		ID:        id,
		Timestamp: exp,
		Method:    http.MethodGet,
		Resource:  resource,
		Host:      host,
		Port:      port,
		Ext:       ext,
		MAC:       mac,
	}

	cred, err := s.lookup(ctx, art)
	if err != nil {
		return nil, nil, err
	}

	expected, err := calculateMAC(cred, authTypeBewit, art)
	if err != nil {
		return nil, nil, err
	}

	if !fixedTimeEqual(expected, mac) {
		return nil, nil, ErrInvalidMAC
	}

	return cred, art, nil
}

// extractBewit removes the bewit parameter from the URL's raw query,
// preserving the byte layout and ordering of the remaining parameters,
// and returns the token together with the stripped resource.
func extractBewit(u *url.URL) (token, resource string, err error) {
	resource = u.EscapedPath()
	if resource == "" {
		resource = "/"
	}

	var kept []string

	for _, pair := range strings.Split(u.RawQuery, "&") {
		if rest, ok := strings.CutPrefix(pair, BewitParam+"="); ok && token == "" {
			token, err = url.QueryUnescape(rest)
			if err != nil {
				return "", "", fmt.Errorf("%w: invalid bewit encoding", ErrMalformedHeader)
			}

			continue
		}

		if pair != "" {
			kept = append(kept, pair)
		}
	}

	if token == "" {
		return "", "", fmt.Errorf("%w: missing bewit parameter", ErrMalformedHeader)
	}

	if len(kept) > 0 {
		resource += "?" + strings.Join(kept, "&")
	}

	return token, resource, nil
}

// decodeBewit splits the base64url token into its four
// backslash-delimited parts: key ID, absolute expiry, MAC and ext.
func decodeBewit(token string) (id string, exp int64, mac, ext string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", 0, "", "", fmt.Errorf("%w: invalid bewit encoding", ErrMalformedHeader)
	}

	parts := strings.SplitN(string(raw), `\`, 4)
	if len(parts) != 4 {
		return "", 0, "", "", fmt.Errorf("%w: invalid bewit structure", ErrMalformedHeader)
	}

	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", 0, "", "", fmt.Errorf("%w: invalid bewit structure", ErrMalformedHeader)
	}

	exp, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", "", fmt.Errorf("%w: invalid bewit expiry", ErrMalformedHeader)
	}

	return parts[0], exp, parts[2], parts[3], nil
}
