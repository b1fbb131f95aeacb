package hawk

import (
	"fmt"
	"time"
)

// ClientConfig configures a Client. Clock and nonce sources are injected
// capabilities so signing stays deterministic under test.
type ClientConfig struct {
	// Credential signs every request. Required.
	Credential *Credential

	// Now supplies the clock. Defaults to time.Now.
	Now func() time.Time

	// NonceFunc generates request nonces. Defaults to GenerateNonce.
	NonceFunc func() string
}

// Client produces Authorization headers for outgoing requests and
// validates Server-Authorization headers on responses. Safe for
// concurrent use.
type Client struct {
	cred  *Credential
	now   func() time.Time
	nonce func() string
}

// NewClient validates the credential and applies defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Credential.validate(); err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	nonce := cfg.NonceFunc
	if nonce == nil {
		nonce = GenerateNonce
	}

	return &Client{cred: cfg.Credential, now: now, nonce: nonce}, nil
}

// HeaderConfig carries the per-request signing options.
type HeaderConfig struct {
	// Timestamp overrides the signing time (seconds since epoch).
	// Zero means the client clock plus LocaltimeOffset.
	Timestamp int64

	// Nonce overrides the generated nonce.
	Nonce string

	// LocaltimeOffset compensates for known skew against the server
	// clock. Ignored when Timestamp is set.
	LocaltimeOffset time.Duration

	// App and Dlg carry delegation identifiers covered by the MAC.
	App string
	Dlg string
}

// Header builds the Authorization header value for the described
// request, returning the header together with the artifact needed to
// later validate the server's response signature. A non-nil
// descriptor payload opts the request into payload hashing.
func (c *Client) Header(desc *RequestDescriptor, cfg HeaderConfig) (string, *Artifact, error) {
	ts := cfg.Timestamp
	if ts == 0 {
		ts = c.now().Add(cfg.LocaltimeOffset).Unix()
	}

	nonce := cfg.Nonce
	if nonce == "" {
		nonce = c.nonce()
	}

	art := &Artifact{
		ID:        c.cred.ID,
		Timestamp: ts,
		Nonce:     nonce,
		Method:    desc.Method,
		Resource:  desc.Resource,
		Host:      desc.Host,
		Port:      desc.Port,
		Ext:       desc.Ext,
		App:       cfg.App,
		Dlg:       cfg.Dlg,
	}

	if desc.Payload != nil {
		hash, err := CalculatePayloadHash(desc.ContentType, desc.Payload, c.cred.Algorithm)
		if err != nil {
			return "", nil, err
		}

		art.Hash = hash
	}

	mac, err := calculateMAC(c.cred, authTypeHeader, art)
	if err != nil {
		return "", nil, err
	}

	art.MAC = mac

	return art.RequestHeader(), art, nil
}

// AuthenticateResponse verifies a Server-Authorization header against
// the artifact returned by Header for the original request. When payload
// is non-nil the response body hash is required and checked as well.
func (c *Client) AuthenticateResponse(art *Artifact, header, contentType string, payload []byte) error {
	server, err := ParseServerHeader(header)
	if err != nil {
		return err
	}

	// The response MAC covers the original request coordinates with the
	// server's own hash and ext substituted.
	resp := *art
	resp.Hash = server.Hash
	resp.Ext = server.Ext

	expected, err := calculateMAC(c.cred, authTypeResponse, &resp)
	if err != nil {
		return err
	}

	if !fixedTimeEqual(expected, server.MAC) {
		return ErrInvalidMAC
	}

	if payload != nil {
		if server.Hash == "" {
			return fmt.Errorf("%w: response carries no hash attribute", ErrInvalidPayloadHash)
		}

		hash, err := CalculatePayloadHash(contentType, payload, c.cred.Algorithm)
		if err != nil {
			return err
		}

		if !fixedTimeEqual(hash, server.Hash) {
			return ErrInvalidPayloadHash
		}
	}

	return nil
}
