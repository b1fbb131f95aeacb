package hawk

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// TransportConfig configures the signing Transport.
type TransportConfig struct {
	// Ext is an application-specific string covered by every request
	// MAC.
	Ext string

	// HashPayload opts outgoing request bodies into payload hashing.
	// Requires Request.GetBody so the body can be read for hashing and
	// replayed for sending.
	HashPayload bool

	// ValidateResponse requires and verifies a Server-Authorization
	// header on every response. When the server includes a response
	// payload hash, the response body is read, checked and restored.
	ValidateResponse bool
}

// Transport is an http.RoundTripper that adds a Hawk Authorization
// header to every outgoing request.
//
// Use NewTransport to create a Transport with a configured
// *http.Transport for proxy, TLS, and timeout settings.
type Transport struct {
	base   http.RoundTripper
	client *Client
	config TransportConfig
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of
// http.DefaultTransport is used, giving an independent connection pool
// with default proxy, TLS, and timeout settings.
func NewTransport(base *http.Transport, client *Client, cfg TransportConfig) *Transport {
	var rt http.RoundTripper
	if base != nil {
		rt = base
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   rt,
		client: client,
		config: cfg,
	}
}

// RoundTrip signs the request and then delegates to the base transport.
// The original request is cloned before signing to avoid mutation; when
// GetBody is available, the clone receives its own body copy so payload
// hashing does not consume the caller's body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	desc := NewRequestDescriptor(clone)
	desc.Ext = t.config.Ext

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		if t.config.HashPayload {
			payload, err := io.ReadAll(body)
			body.Close()
			if err != nil {
				return nil, err
			}

			desc.Payload = payload
			clone.Body = io.NopCloser(bytes.NewReader(payload))
		} else {
			clone.Body = body
		}
	}

	header, art, err := t.client.Header(desc, HeaderConfig{})
	if err != nil {
		return nil, err
	}

	clone.Header.Set("Authorization", header)

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if t.config.ValidateResponse {
		if err := t.validateResponse(art, resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}

	return resp, nil
}

// validateResponse checks the Server-Authorization header against the
// request artifact, reading and restoring the body when the server
// included a response payload hash.
func (t *Transport) validateResponse(art *Artifact, resp *http.Response) error {
	header := resp.Header.Get("Server-Authorization")
	if header == "" {
		return fmt.Errorf("%w: missing Server-Authorization header", ErrMalformedHeader)
	}

	server, err := ParseServerHeader(header)
	if err != nil {
		return err
	}

	var payload []byte
	if server.Hash != "" && resp.Body != nil {
		payload, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(payload))
	}

	return t.client.AuthenticateResponse(art, header, resp.Header.Get("Content-Type"), payload)
}
