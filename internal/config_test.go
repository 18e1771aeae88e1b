package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/booker/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.App.HTTP.Port = 0 }, "app:"},
		{"port too large", func(c *Config) { c.App.HTTP.Port = 70000 }, "app:"},
		{"negative shutdown", func(c *Config) { c.App.HTTP.ShutdownTimeout = -time.Second }, "app:"},
		{"no vault", func(c *Config) { c.Vault.Path = "" }, "vault:"},
		{"no sqlite", func(c *Config) { c.SQLite.Path = "" }, "sqlite:"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "magic" }, "auth:"},
		{"token mode without token", func(c *Config) { c.Auth.Mode = AuthModeToken }, "token is empty"},
		{"unknown template", func(c *Config) { c.Booker.DefaultTemplate = "fancy" }, "booker:"},
		{"negative throttle", func(c *Config) { c.Events.LibraryThrottle = -1 }, "events:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAuthConfig(t *testing.T) {
	empty := AuthConfig{}
	require.NoError(t, empty.Validate())
	assert.Equal(t, AuthModeDisabled, empty.Mode)
	assert.False(t, empty.AuthEnabled())

	token := AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	require.NoError(t, token.Validate())
	assert.True(t, token.AuthEnabled())
}

func TestBookerConfig_KnownTemplates(t *testing.T) {
	for _, name := range []string{"basic", "advanced"} {
		cfg := BookerConfig{DefaultTemplate: name}
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestShutdownTimeoutDefault(t *testing.T) {
	var c HTTPConfig
	assert.Equal(t, 10*time.Second, c.shutdownTimeout())
	c.ShutdownTimeout = time.Second
	assert.Equal(t, time.Second, c.shutdownTimeout())
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("BOOKER_AUTH_TOKEN", "from-env")
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  log_level: debug
  http:
    port: 9090
    shutdown_timeout: 3s
vault:
  path: /srv/vault
sqlite:
  path: /srv/booker.db
auth:
  mode: token
  token: ${BOOKER_AUTH_TOKEN}
booker:
  default_template: advanced
events:
  watch: false
  library_throttle: 500ms
`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.LoadOrDefault(p, cfg))

	assert.Equal(t, 9090, cfg.App.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.App.HTTP.ShutdownTimeout)
	assert.Equal(t, "from-env", cfg.Auth.Token)
	assert.Equal(t, "advanced", cfg.Booker.DefaultTemplate)
	assert.True(t, cfg.Booker.SyncOnStart, "unset keys keep their defaults")
	assert.False(t, cfg.Events.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Events.LibraryThrottle)
}
