package client_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drinkd/client"
)

func TestFileTokenStore_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drinkd", "userToken")
	store := client.NewFileTokenStoreAt(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, client.ErrNoToken)

	require.NoError(t, store.Save("header.payload.signature"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "header.payload.signature", token)

	require.NoError(t, store.Delete())

	_, err = store.Load()
	assert.ErrorIs(t, err, client.ErrNoToken)
}

func TestFileTokenStore_DeleteIsIdempotent(t *testing.T) {
	store := client.NewFileTokenStoreAt(filepath.Join(t.TempDir(), "userToken"))

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete())
}

func TestFileTokenStore_OverwritesPreviousToken(t *testing.T) {
	store := client.NewFileTokenStoreAt(filepath.Join(t.TempDir(), "userToken"))

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestFileTokenStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	path := filepath.Join(t.TempDir(), "drinkd", "userToken")
	store := client.NewFileTokenStoreAt(path)
	require.NoError(t, store.Save("secret-token"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
