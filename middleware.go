package hawk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type credentialKey struct{}
type artifactKey struct{}

// CredentialFromContext returns the credential authenticated by
// Middleware, or nil when the request was not authenticated.
func CredentialFromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(credentialKey{}).(*Credential)
	return cred
}

// ArtifactFromContext returns the artifact authenticated by Middleware,
// or nil when the request was not authenticated.
func ArtifactFromContext(ctx context.Context) *Artifact {
	art, _ := ctx.Value(artifactKey{}).(*Artifact)
	return art
}

// MiddlewareConfig configures the server-side verification middleware.
type MiddlewareConfig struct {
	// Server performs the verification. Required.
	Server *Server

	// AllowBewit also accepts bewit-authenticated requests when the
	// Authorization header is absent and the bewit query parameter is
	// present.
	AllowBewit bool

	// VerifyPayload reads, checks and restores the request body when
	// the artifact carries a payload hash.
	VerifyPayload bool

	// RequirePayloadHash rejects header-authenticated requests whose
	// artifact carries no payload hash. Implies nothing about bewits,
	// which never hash payloads.
	RequirePayloadHash bool

	// OnError is called when verification fails. When nil, a 401
	// response with a WWW-Authenticate challenge is sent; on stale
	// timestamps the challenge carries the server time and its MAC so
	// the client can correct clock drift.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware returns a net/http middleware that verifies Hawk
// authentication on incoming requests and exposes the result through
// the request context.
func Middleware(cfg MiddlewareConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Server == nil {
		return nil, ErrNoCredentials
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, art, err := authenticate(cfg, r)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), credentialKey{}, cred)
			ctx = context.WithValue(ctx, artifactKey{}, art)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// authenticate picks the header or bewit path and applies the payload
// policy.
func authenticate(cfg MiddlewareConfig, r *http.Request) (*Credential, *Artifact, error) {
	ctx := r.Context()

	if cfg.AllowBewit && r.Header.Get("Authorization") == "" && r.URL.Query().Get(BewitParam) != "" {
		return cfg.Server.AuthenticateBewit(ctx, r)
	}

	cred, art, err := cfg.Server.Authenticate(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RequirePayloadHash && art.Hash == "" {
		return nil, nil, fmt.Errorf("%w: hash attribute required", ErrInvalidPayloadHash)
	}

	if cfg.VerifyPayload && art.Hash != "" {
		payload, err := readAndRestoreBody(r)
		if err != nil {
			return nil, nil, err
		}

		if err := cfg.Server.VerifyPayload(cred, art, r.Header.Get("Content-Type"), payload); err != nil {
			return nil, nil, err
		}
	}

	return cred, art, nil
}

// defaultOnError writes a 401 response with a Hawk challenge. Stale
// timestamps get the server-time feedback attributes.
func defaultOnError(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", Challenge(err))
	w.WriteHeader(http.StatusUnauthorized)
}

// Challenge builds the WWW-Authenticate header value for a verification
// failure. Stale-timestamp failures carry ts and tsm attributes so the
// client can resynchronize; everything else yields a bare challenge
// that reveals nothing about the failure cause.
func Challenge(err error) string {
	var stale *StaleTimestampError
	if errors.As(err, &stale) {
		value := fmt.Sprintf(`Hawk ts="%d"`, stale.ServerNow.Unix())

		if stale.TimestampMAC != "" {
			value += `, tsm=` + quoteAttr(stale.TimestampMAC)
		}

		return value + `, error="Stale timestamp"`
	}

	return "Hawk"
}

// readAndRestoreBody reads the entire request body and replaces it with
// a new reader so the body can be consumed again by downstream handlers.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}
