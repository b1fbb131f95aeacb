package hawk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}

func TestNewClient(t *testing.T) {
	t.Run("nil credential", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := NewClient(ClientConfig{Credential: &Credential{ID: "a", Algorithm: SHA256}})
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("bad algorithm", func(t *testing.T) {
		_, err := NewClient(ClientConfig{Credential: &Credential{ID: "a", Key: []byte("k"), Algorithm: "md5"}})
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestClientHeader(t *testing.T) {
	client, err := NewClient(ClientConfig{
		Credential: testCredential(),
		Now:        fixedClock(1353832234),
	})
	require.NoError(t, err)

	desc := &RequestDescriptor{
		Method:   "GET",
		Host:     "example.com",
		Port:     "8000",
		Resource: "/resource/1?b=1&a=2",
		Ext:      "some-app-ext-data",
	}

	t.Run("known vector", func(t *testing.T) {
		value, art, err := client.Header(desc, HeaderConfig{Nonce: "j4h3g2"})
		require.NoError(t, err)

		assert.Equal(t, "6R4rV5iE+NPoym+WwjeHzjAGXUtLNIxmo1vpMofpLAE=", art.MAC)
		assert.Contains(t, value, `id="dh37fgj492je"`)
		assert.Contains(t, value, `ts="1353832234"`)
		assert.Contains(t, value, `nonce="j4h3g2"`)
		assert.Contains(t, value, `mac="6R4rV5iE+NPoym+WwjeHzjAGXUtLNIxmo1vpMofpLAE="`)
	})

	t.Run("generated nonce is unique", func(t *testing.T) {
		_, a, err := client.Header(desc, HeaderConfig{})
		require.NoError(t, err)

		_, b, err := client.Header(desc, HeaderConfig{})
		require.NoError(t, err)

		assert.NotEmpty(t, a.Nonce)
		assert.NotEqual(t, a.Nonce, b.Nonce)
	})

	t.Run("timestamp override", func(t *testing.T) {
		_, art, err := client.Header(desc, HeaderConfig{Timestamp: 42, Nonce: "n"})
		require.NoError(t, err)

		assert.Equal(t, int64(42), art.Timestamp)
	})

	t.Run("localtime offset", func(t *testing.T) {
		_, art, err := client.Header(desc, HeaderConfig{LocaltimeOffset: 90 * time.Second, Nonce: "n"})
		require.NoError(t, err)

		assert.Equal(t, int64(1353832234+90), art.Timestamp)
	})

	t.Run("payload triggers hashing", func(t *testing.T) {
		withPayload := *desc
		withPayload.ContentType = "text/plain"
		withPayload.Payload = []byte("Thank you for flying Hawk")

		_, art, err := client.Header(&withPayload, HeaderConfig{Nonce: "n"})
		require.NoError(t, err)

		assert.Equal(t, "Yi9LfIIFRtBEPt74PVmbTF/xVAwPn7ub15ePICfgnuY=", art.Hash)
	})

	t.Run("no payload no hash", func(t *testing.T) {
		_, art, err := client.Header(desc, HeaderConfig{Nonce: "n"})
		require.NoError(t, err)

		assert.Empty(t, art.Hash)
	})

	t.Run("app and dlg covered", func(t *testing.T) {
		value, art, err := client.Header(desc, HeaderConfig{Nonce: "n", App: "app-id", Dlg: "dlg-id"})
		require.NoError(t, err)

		assert.Equal(t, "app-id", art.App)
		assert.Contains(t, value, `app="app-id"`)
		assert.Contains(t, value, `dlg="dlg-id"`)

		_, plain, err := client.Header(desc, HeaderConfig{Nonce: "n"})
		require.NoError(t, err)

		assert.NotEqual(t, plain.MAC, art.MAC)
	})

	t.Run("newline in ext rejected", func(t *testing.T) {
		bad := *desc
		bad.Ext = "a\nb"

		_, _, err := client.Header(&bad, HeaderConfig{Nonce: "n"})
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}

func TestClientAuthenticateResponse(t *testing.T) {
	cred := testCredential()

	client, err := NewClient(ClientConfig{Credential: cred, Now: fixedClock(1353832234)})
	require.NoError(t, err)

	server, err := NewServer(ServerConfig{
		Credentials: staticLookup(cred),
		Now:         fixedClock(1353832234),
	})
	require.NoError(t, err)

	desc := &RequestDescriptor{
		Method:   "POST",
		Host:     "example.com",
		Port:     "8000",
		Resource: "/resource/4?filter=a",
	}

	_, art, err := client.Header(desc, HeaderConfig{Nonce: "j4h3g2"})
	require.NoError(t, err)

	t.Run("valid response header", func(t *testing.T) {
		value, err := server.ResponseHeader(cred, art, ResponseConfig{Ext: "response-specific"})
		require.NoError(t, err)

		assert.NoError(t, client.AuthenticateResponse(art, value, "", nil))
	})

	t.Run("valid response with payload", func(t *testing.T) {
		payload := []byte("some reply")

		value, err := server.ResponseHeader(cred, art, ResponseConfig{
			Ext:         "response-specific",
			ContentType: "text/plain",
			Payload:     payload,
		})
		require.NoError(t, err)

		assert.NoError(t, client.AuthenticateResponse(art, value, "text/plain", payload))
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		value, err := server.ResponseHeader(cred, art, ResponseConfig{
			ContentType: "text/plain",
			Payload:     []byte("some reply"),
		})
		require.NoError(t, err)

		err = client.AuthenticateResponse(art, value, "text/plain", []byte("some other reply"))
		assert.ErrorIs(t, err, ErrInvalidPayloadHash)
	})

	t.Run("required hash missing rejected", func(t *testing.T) {
		value, err := server.ResponseHeader(cred, art, ResponseConfig{})
		require.NoError(t, err)

		err = client.AuthenticateResponse(art, value, "text/plain", []byte("some reply"))
		assert.ErrorIs(t, err, ErrInvalidPayloadHash)
	})

	t.Run("tampered mac rejected", func(t *testing.T) {
		err := client.AuthenticateResponse(art, `Hawk mac="AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="`, "", nil)
		assert.ErrorIs(t, err, ErrInvalidMAC)
	})

	t.Run("response from other request rejected", func(t *testing.T) {
		other := *art
		other.Nonce = "different"

		value, err := server.ResponseHeader(cred, art, ResponseConfig{})
		require.NoError(t, err)

		err = client.AuthenticateResponse(&other, value, "", nil)
		assert.ErrorIs(t, err, ErrInvalidMAC)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		err := client.AuthenticateResponse(art, "Bearer abc", "", nil)
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}
