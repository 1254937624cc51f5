package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/medihelp-client/token"
	"github.com/jrsteele09/medihelp-client/token/filestore"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestFileStore_PlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	fs, err := filestore.New(path)
	require.NoError(t, err)

	v, err := fs.Get(ctx, token.AccessTokenKey)
	require.NoError(t, err)
	require.Empty(t, v, "missing file reads as empty")

	require.NoError(t, token.Save(ctx, fs, token.Pair{Access: "A", Refresh: "R"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second store on the same file sees the pair, as after a restart
	reopened, err := filestore.New(path)
	require.NoError(t, err)
	p, err := token.Load(ctx, reopened)
	require.NoError(t, err)
	require.Equal(t, token.Pair{Access: "A", Refresh: "R"}, p)

	require.NoError(t, token.Clear(ctx, reopened))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	fs, err := filestore.New(path, filestore.WithEncryptionKey(testKey))
	require.NoError(t, err)

	require.NoError(t, fs.Set(ctx, token.AccessTokenKey, "secret-access"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "secret-access"))

	v, err := fs.Get(ctx, token.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "secret-access", v)

	otherKey := strings.Repeat("ff", 32)
	wrong, err := filestore.New(path, filestore.WithEncryptionKey(otherKey))
	require.NoError(t, err)
	_, err = wrong.Get(ctx, token.AccessTokenKey)
	require.ErrorContains(t, err, "decryption failed")
}

func TestFileStore_InvalidKeys(t *testing.T) {
	_, err := filestore.New("x.json", filestore.WithEncryptionKey("zz"))
	require.ErrorContains(t, err, "invalid key hex")

	_, err = filestore.New("x.json", filestore.WithEncryptionKey("0011"))
	require.ErrorContains(t, err, "key must be 32 bytes")

	_, err = filestore.New("")
	require.Error(t, err)
}
