package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/hawk"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	store := NewStatic(map[string]hawk.Credential{
		"dh37fgj492je": {
			Key:       []byte("werxhqb98rpaxn39848xrunpaw3489ruxnpaw3489ruxnpaw3489ruxnpaw389"),
			Algorithm: hawk.SHA256,
		},
	})

	t.Run("lookup hit fills the id", func(t *testing.T) {
		cred, err := store.Lookup(ctx, "dh37fgj492je")
		require.NoError(t, err)

		assert.Equal(t, "dh37fgj492je", cred.ID)
		assert.Equal(t, hawk.SHA256, cred.Algorithm)
	})

	t.Run("lookup miss", func(t *testing.T) {
		_, err := store.Lookup(ctx, "no-such-id")
		assert.ErrorIs(t, err, hawk.ErrUnknownCredential)
	})

	t.Run("len", func(t *testing.T) {
		assert.Equal(t, 1, store.Len())
	})

	t.Run("satisfies the lookup func", func(t *testing.T) {
		var _ hawk.CredentialsLookupFunc = store.Lookup
	})
}

func TestParse(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		store, err := Parse([]byte(`
credentials:
  dh37fgj492je:
    key: werxhqb98rpaxn39848xrunpaw3489ruxnpaw3489ruxnpaw3489ruxnpaw389
    algorithm: sha256
  legacy:
    key: oldsecret
    algorithm: sha1
`))
		require.NoError(t, err)
		require.Equal(t, 2, store.Len())

		cred, err := store.Lookup(context.Background(), "legacy")
		require.NoError(t, err)
		assert.Equal(t, hawk.SHA1, cred.Algorithm)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
credentials:
  broken:
    algorithm: sha256
`))
		assert.ErrorIs(t, err, hawk.ErrInvalidCredential)
	})

	t.Run("unsupported algorithm rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
credentials:
  broken:
    key: secret
    algorithm: md5
`))
		assert.ErrorIs(t, err, hawk.ErrUnsupportedAlgorithm)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		_, err := Parse([]byte("credentials: [not a map"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.yml")

		require.NoError(t, os.WriteFile(path, []byte(`
credentials:
  dh37fgj492je:
    key: werxhqb98rpaxn39848xrunpaw3489ruxnpaw3489ruxnpaw3489ruxnpaw389
    algorithm: sha256
`), 0o600))

		store, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})
}
