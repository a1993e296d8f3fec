package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, env map[string]string) *FileCredentialStore {
	t.Helper()

	store := NewFileCredentialStore(filepath.Join(t.TempDir(), "kits", "config.json"))
	store.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return store
}

func TestFileCredentialStore_MissingFile(t *testing.T) {
	store := newTestStore(t, nil)

	key, origin := store.Resolve()
	assert.Empty(t, key)
	assert.Equal(t, OriginNone, origin)
}

func TestFileCredentialStore_SetAndRemove(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.SetCredential("  sk-test-1234  "))

	key, origin := store.Resolve()
	assert.Equal(t, "sk-test-1234", key)
	assert.Equal(t, OriginFile, origin)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.RemoveCredential())
	assert.Empty(t, store.Credential())
}

func TestFileCredentialStore_PreservesOtherKeys(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"theme":"dark"}`), 0o600))

	require.NoError(t, store.SetCredential("abc"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","apiKey":"abc"}`, string(data))
}

func TestFileCredentialStore_EnvOverridesFile(t *testing.T) {
	store := newTestStore(t, map[string]string{APIKeyEnv: "from-env"})
	require.NoError(t, store.SetCredential("from-file"))

	key, origin := store.Resolve()
	assert.Equal(t, "from-env", key)
	assert.Equal(t, OriginEnv, origin)
}

func TestFileCredentialStore_BrokenFile(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{not json`), 0o600))

	assert.Empty(t, store.Credential())
	assert.Error(t, store.SetCredential("abc"))
}

func TestFileCredentialStore_RejectsEmptyKey(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Error(t, store.SetCredential("   "))
}

func TestStaticCredential(t *testing.T) {
	assert.Equal(t, "key", StaticCredential(" key ").Credential())
}

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "Not set", MaskCredential(""))
	assert.Equal(t, "***", MaskCredential("abc"))
	assert.Equal(t, "***5678", MaskCredential("sk-12345678"))
}
