package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "ws://localhost:8000/rpc", config.Storage.Address)
	assert.Equal(t, "folio", config.Storage.Namespace)
	assert.Equal(t, "5m", config.Market.QuoteTTL)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig("does/not/exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.toml")
	content := `
environment = "production"

[server]
port = 9090

[auth]
jwt_secret = "file-secret"
access_token_expiry = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "file-secret", config.Auth.JWTSecret)
	assert.Equal(t, "30m", config.Auth.AccessTokenExpiry)
	assert.True(t, config.IsProduction())

	// Untouched sections keep defaults
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_PORT", "7070")
	t.Setenv("FOLIO_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("FOLIO_STORAGE_ADDRESS", "ws://db:8000/rpc")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "env-secret", config.Auth.JWTSecret)
	assert.Equal(t, "ws://db:8000/rpc", config.Storage.Address)
}

func TestAuthConfig_ExpiryParsing(t *testing.T) {
	auth := AuthConfig{AccessTokenExpiry: "bogus", RefreshTokenExpiry: "24h"}
	assert.Equal(t, "15m0s", auth.GetAccessTokenExpiry().String())
	assert.Equal(t, "24h0m0s", auth.GetRefreshTokenExpiry().String())
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "env-key")

	key, err := ResolveAPIKey("alphavantage_api_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	key, err = ResolveAPIKey("gemini_api_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", key)

	_, err = ResolveAPIKey("gemini_api_key", "")
	assert.Error(t, err)
}
