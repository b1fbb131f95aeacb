package hawk

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	cred := testCredential()
	now := int64(1353832234)

	newStack := func(t *testing.T, cfg MiddlewareConfig) http.Handler {
		t.Helper()

		if cfg.Server == nil {
			server, err := NewServer(ServerConfig{
				Credentials: staticLookup(cred),
				Now:         fixedClock(now),
			})
			require.NoError(t, err)

			cfg.Server = server
		}

		mw, err := Middleware(cfg)
		require.NoError(t, err)

		return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CredentialFromContext(r.Context()) == nil || ArtifactFromContext(r.Context()) == nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			w.WriteHeader(http.StatusOK)
		}))
	}

	signedRequest := func(t *testing.T, method, target string, cfg HeaderConfig) *http.Request {
		t.Helper()

		client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(now)})
		require.NoError(t, err)

		r := httptest.NewRequest(method, target, nil)

		header, _, err := client.Header(NewRequestDescriptor(r), cfg)
		require.NoError(t, err)

		r.Header.Set("Authorization", header)

		return r
	}

	t.Run("requires server", func(t *testing.T) {
		_, err := Middleware(MiddlewareConfig{})
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("valid request passes with context", func(t *testing.T) {
		handler := newStack(t, MiddlewareConfig{})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, signedRequest(t, "GET", "http://example.com/resource?a=1", HeaderConfig{}))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header rejected with bare challenge", func(t *testing.T) {
		handler := newStack(t, MiddlewareConfig{})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/resource", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Hawk", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("stale timestamp challenge carries feedback", func(t *testing.T) {
		handler := newStack(t, MiddlewareConfig{})

		r := signedRequest(t, "GET", "http://example.com/resource", HeaderConfig{Timestamp: now - 3600})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)

		challenge := w.Header().Get("WWW-Authenticate")
		ts, tsm, err := ParseWWWAuthenticate(challenge)
		require.NoError(t, err)

		assert.Equal(t, now, ts)

		expected, err := calculateTimestampMAC(cred, now)
		require.NoError(t, err)
		assert.Equal(t, expected, tsm)
	})

	t.Run("custom error handler", func(t *testing.T) {
		var got error

		handler := newStack(t, MiddlewareConfig{
			OnError: func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusForbidden)
			},
		})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.ErrorIs(t, got, ErrMalformedHeader)
	})

	t.Run("bewit accepted when allowed", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(now)})
		require.NoError(t, err)

		url, err := client.BewitURL("http://example.com/file?x=1", 300*time.Second, "")
		require.NoError(t, err)

		handler := newStack(t, MiddlewareConfig{AllowBewit: true})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", url, nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bewit ignored when not allowed", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(now)})
		require.NoError(t, err)

		url, err := client.BewitURL("http://example.com/file", 300*time.Second, "")
		require.NoError(t, err)

		handler := newStack(t, MiddlewareConfig{})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", url, nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("payload verified when hash present", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(now)})
		require.NoError(t, err)

		handler := newStack(t, MiddlewareConfig{VerifyPayload: true})

		body := "the body"
		r := httptest.NewRequest("POST", "http://example.com/submit", strings.NewReader(body))
		r.Header.Set("Content-Type", "text/plain")

		desc := NewRequestDescriptor(r)
		desc.Payload = []byte(body)

		header, _, err := client.Header(desc, HeaderConfig{})
		require.NoError(t, err)

		r.Header.Set("Authorization", header)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(now)})
		require.NoError(t, err)

		handler := newStack(t, MiddlewareConfig{VerifyPayload: true})

		r := httptest.NewRequest("POST", "http://example.com/submit", strings.NewReader("tampered body"))
		r.Header.Set("Content-Type", "text/plain")

		desc := NewRequestDescriptor(r)
		desc.Payload = []byte("signed body")

		header, _, err := client.Header(desc, HeaderConfig{})
		require.NoError(t, err)

		r.Header.Set("Authorization", header)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("hash required policy", func(t *testing.T) {
		handler := newStack(t, MiddlewareConfig{RequirePayloadHash: true})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, signedRequest(t, "GET", "http://example.com/resource", HeaderConfig{}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestChallenge(t *testing.T) {
	t.Run("generic failure reveals nothing", func(t *testing.T) {
		assert.Equal(t, "Hawk", Challenge(ErrInvalidMAC))
		assert.Equal(t, "Hawk", Challenge(ErrNonceReplay))
	})

	t.Run("stale timestamp carries server time", func(t *testing.T) {
		challenge := Challenge(&StaleTimestampError{
			Delta:        time.Hour,
			ServerNow:    time.Unix(1365741469, 0),
			TimestampMAC: "abc=",
		})

		assert.Equal(t, `Hawk ts="1365741469", tsm="abc=", error="Stale timestamp"`, challenge)
	})
}
