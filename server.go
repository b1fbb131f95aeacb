package hawk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimestampSkew is the allowed clock difference between client
// and server when ServerConfig leaves TimestampSkew unset.
const DefaultTimestampSkew = 60 * time.Second

// dummyCredential keeps the unknown-credential path at uniform cost: a
// MAC is computed against it before the lookup failure is reported, so
// response timing never reveals whether a key ID exists.
var dummyCredential = &Credential{
	ID:        "dummy",
	Key:       []byte("wall-of-clay-around-the-empty-well"),
	Algorithm: SHA256,
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Credentials resolves key IDs to credential records. Required.
	Credentials CredentialsLookupFunc

	// NonceCheck atomically checks and records nonces for replay
	// protection. When nil, replay protection is disabled and only the
	// timestamp window applies.
	NonceCheck NonceCheckFunc

	// TimestampSkew is the allowed |now - ts| window, inclusive.
	// Defaults to DefaultTimestampSkew.
	TimestampSkew time.Duration

	// Now supplies the clock. Defaults to time.Now.
	Now func() time.Time

	// DisableTimestampFeedback suppresses the authenticated server-time
	// report (the tsm value) on stale-timestamp rejections. The default
	// is to always report, so clients can correct drift and retry.
	DisableTimestampFeedback bool
}

// Server validates incoming Hawk-authenticated requests. Stateless and
// safe for concurrent use; all external state lives behind the injected
// callbacks.
type Server struct {
	credentials  CredentialsLookupFunc
	nonceCheck   NonceCheckFunc
	skew         time.Duration
	now          func() time.Time
	omitFeedback bool
}

// NewServer validates the configuration and applies defaults.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Credentials == nil {
		return nil, ErrNoCredentials
	}

	skew := cfg.TimestampSkew
	if skew == 0 {
		skew = DefaultTimestampSkew
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		credentials:  cfg.Credentials,
		nonceCheck:   cfg.NonceCheck,
		skew:         skew,
		now:          now,
		omitFeedback: cfg.DisableTimestampFeedback,
	}, nil
}

// Authenticate validates the Authorization header of an incoming request
// end to end, returning the credential and artifact on success. The body
// is not read; call VerifyPayload afterwards when payload validation is
// required.
func (s *Server) Authenticate(ctx context.Context, r *http.Request) (*Credential, *Artifact, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil, fmt.Errorf("%w: missing Authorization header", ErrMalformedHeader)
	}

	return s.AuthenticateRequest(ctx, NewRequestDescriptor(r), header)
}

// AuthenticateRequest validates an Authorization header value against a
// request descriptor. Stages run in order: parse, credential lookup,
// timestamp and nonce checks, MAC comparison. Each stage short-circuits
// with its typed outcome.
func (s *Server) AuthenticateRequest(ctx context.Context, desc *RequestDescriptor, header string) (*Credential, *Artifact, error) {
	art, err := ParseRequestHeader(header)
	if err != nil {
		return nil, nil, err
	}

	art.Method = desc.Method
	art.Resource = desc.Resource
	art.Host = desc.Host
	art.Port = desc.Port

	cred, err := s.lookup(ctx, art)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkTimestamp(cred, art.Timestamp); err != nil {
		return nil, nil, err
	}

	if s.nonceCheck != nil {
		err := s.nonceCheck(ctx, art.ID, art.Nonce, time.Unix(art.Timestamp, 0))
		switch {
		case err == nil:
		case errors.Is(err, ErrNonceReplay):
			return nil, nil, err
		default:
			return nil, nil, fmt.Errorf("%w: nonce check: %v", ErrStoreUnavailable, err)
		}
	}

	expected, err := calculateMAC(cred, authTypeHeader, art)
	if err != nil {
		return nil, nil, err
	}

	if !fixedTimeEqual(expected, art.MAC) {
		return nil, nil, ErrInvalidMAC
	}

	return cred, art, nil
}

// lookup resolves the artifact's key ID, keeping the failure path at the
// same cryptographic cost as the success path.
func (s *Server) lookup(ctx context.Context, art *Artifact) (*Credential, error) {
	cred, err := s.credentials(ctx, art.ID)

	if err != nil || cred == nil {
		calculateMAC(dummyCredential, authTypeHeader, art)

		switch {
		case err == nil, errors.Is(err, ErrUnknownCredential):
			return nil, ErrUnknownCredential
		default:
			return nil, fmt.Errorf("%w: credentials lookup: %v", ErrStoreUnavailable, err)
		}
	}

	if err := cred.validate(); err != nil {
		return nil, err
	}

	return cred, nil
}

// checkTimestamp enforces the inclusive skew window |now - ts| <= skew.
// Rejections carry the server clock, the observed delta and, unless
// suppressed, an authenticated timestamp MAC the caller can forward to
// the client for clock correction.
func (s *Server) checkTimestamp(cred *Credential, ts int64) error {
	now := s.now()

	delta := now.Unix() - ts
	if delta < 0 {
		if -delta <= int64(s.skew/time.Second) {
			return nil
		}
	} else if delta <= int64(s.skew/time.Second) {
		return nil
	}

	stale := &StaleTimestampError{
		Delta:     time.Duration(delta) * time.Second,
		ServerNow: now,
	}

	if !s.omitFeedback {
		if tsm, err := calculateTimestampMAC(cred, now.Unix()); err == nil {
			stale.TimestampMAC = tsm
		}
	}

	return stale
}

// VerifyPayload checks the request body against the hash attribute the
// MAC already covered. It is a separate step because the body often
// arrives after header validation. A missing hash attribute is an error
// here; servers that treat the hash as optional should gate the call on
// artifact.Hash being present.
func (s *Server) VerifyPayload(cred *Credential, art *Artifact, contentType string, payload []byte) error {
	if art.Hash == "" {
		return fmt.Errorf("%w: request carries no hash attribute", ErrInvalidPayloadHash)
	}

	hash, err := CalculatePayloadHash(contentType, payload, cred.Algorithm)
	if err != nil {
		return err
	}

	if !fixedTimeEqual(hash, art.Hash) {
		return ErrInvalidPayloadHash
	}

	return nil
}

// ResponseConfig carries the options for signing a response.
type ResponseConfig struct {
	// Ext is a response-specific extension string.
	Ext string

	// ContentType and Payload, when Payload is non-nil, add a response
	// payload hash covered by the response MAC.
	ContentType string
	Payload     []byte
}

// ResponseHeader produces a Server-Authorization header value proving to
// the client that the response came from the holder of the same secret.
// The MAC covers the original request artifact with the response's own
// hash and ext substituted.
func (s *Server) ResponseHeader(cred *Credential, art *Artifact, cfg ResponseConfig) (string, error) {
	resp := *art
	resp.Ext = cfg.Ext
	resp.Hash = ""

	if cfg.Payload != nil {
		hash, err := CalculatePayloadHash(cfg.ContentType, cfg.Payload, cred.Algorithm)
		if err != nil {
			return "", err
		}

		resp.Hash = hash
	}

	mac, err := calculateMAC(cred, authTypeResponse, &resp)
	if err != nil {
		return "", err
	}

	return serverHeader(mac, resp.Hash, resp.Ext), nil
}
