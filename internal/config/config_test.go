package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/tailor/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TAILOR_ENDPOINT", "TAILOR_DOWNLOAD_DIR", "TAILOR_ADDR", "TAILOR_STORE", "TAILOR_STORE_DRIVER", "TAILOR_STORE_PATH"} {
		t.Setenv(k, "")
	}
	// keep .env files of the developer's checkout out of the picture
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/ada")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/generate", cfg.Endpoint)
	assert.Equal(t, "/home/ada/Downloads", cfg.DownloadDir)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, store.DriverCGO, cfg.Store.Driver)
	assert.Equal(t, "/home/ada/.tailor/tailor.db", cfg.Store.Path)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/ada")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: http://gen.internal:9000/generate
download_dir: ~/resumes
store:
  backend: file
`), 0o644))
	t.Setenv("TAILOR_ENDPOINT", "https://gen.example.com/generate")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gen.example.com/generate", cfg.Endpoint)
	assert.Equal(t, "/home/ada/resumes", cfg.DownloadDir)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "/home/ada/.tailor/log", cfg.Store.Path)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	wd, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".env"), []byte("TAILOR_ADDR=127.0.0.1:9999\n"), 0o644))
	// godotenv never overrides a variable that is set, even to ""
	os.Unsetenv("TAILOR_ADDR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"backend", map[string]string{"TAILOR_STORE": "postgres"}},
		{"driver", map[string]string{"TAILOR_STORE_DRIVER": "duckdb"}},
		{"endpoint", map[string]string{"TAILOR_ENDPOINT": "localhost:8000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestOpenStoreFile(t *testing.T) {
	cfg := &Config{Store: Store{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "log")}}
	kv, err := cfg.OpenStore()
	require.NoError(t, err)
	defer kv.Close()
	assert.IsType(t, &store.File{}, kv)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := &Config{Store: Store{Backend: BackendSQLite, Driver: store.DriverPure, Path: filepath.Join(t.TempDir(), "db", "tailor.db")}}
	kv, err := cfg.OpenStore()
	require.NoError(t, err)
	defer kv.Close()
	assert.IsType(t, &store.SQLite{}, kv)
}
