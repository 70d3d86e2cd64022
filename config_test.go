package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/educenter/go-session"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := session.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.AuthBaseURL)
	assert.Equal(t, session.DefaultLoginPath, cfg.LoginPath)
	assert.Equal(t, session.DefaultElevatedLoginPath, cfg.ElevatedLoginPath)
	assert.Equal(t, session.DefaultRefreshPath, cfg.RefreshPath)
	assert.Equal(t, session.DefaultLoginTimeout, cfg.LoginTimeout)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_AUTH_BASE_URL", "https://api.center.example")
	t.Setenv("SESSION_LOGIN_TIMEOUT", "3s")
	t.Setenv("SESSION_STORE_BACKEND", "sqlite")

	cfg, err := session.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.center.example", cfg.AuthBaseURL)
	assert.Equal(t, 3*time.Second, cfg.LoginTimeout)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"auth_base_url: https://file.center.example\nlogin_path: /v2/auth/login\n",
	), 0o600))

	cfg, err := session.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.center.example", cfg.AuthBaseURL)
	assert.Equal(t, "/v2/auth/login", cfg.LoginPath)
	// Untouched keys keep their defaults.
	assert.Equal(t, session.DefaultRefreshPath, cfg.RefreshPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := session.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestBuildStoreBackends(t *testing.T) {
	ctx := context.Background()

	memory, err := (&session.Config{StoreBackend: "memory"}).BuildStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, memory)

	fallback, err := (&session.Config{}).BuildStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, fallback)

	sqlite, err := (&session.Config{
		StoreBackend: "sqlite",
		StoreDSN:     "file:" + filepath.Join(t.TempDir(), "session.db"),
	}).BuildStore(ctx)
	require.NoError(t, err)
	require.IsType(t, &session.BunStore{}, sqlite)
	sqlite.(*session.BunStore).Close()

	_, err = (&session.Config{StoreBackend: "cassandra"}).BuildStore(ctx)
	require.Error(t, err)
}

func TestBuildWiresManager(t *testing.T) {
	cfg := &session.Config{
		AuthBaseURL:  "http://localhost:9",
		StoreBackend: "memory",
		LoginTimeout: 2 * time.Second,
	}

	m, err := session.Build(context.Background(), cfg, session.WithLogger(quietLogger{}))
	require.NoError(t, err)
	defer m.Close()

	st := m.State()
	assert.True(t, st.Loading, "a built manager starts pre-bootstrap")
	assert.False(t, st.Authenticated)
}
