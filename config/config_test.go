package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

var allKeys = []string{
	"CONFIG_FILE", "MODE", "ENV", "LOG_LEVEL", "LOG_FILE", "PORT", "ALLOWED_ORIGIN",
	"API_BASE_URL", "SOCKET_URL", "HTTP_TIMEOUT", "API_RATE_LIMIT", "API_RATE_BURST",
	"RECONNECT_ATTEMPTS", "RECONNECT_DELAY", "RECENT_WINDOW",
	"EXPORT_DRIVER", "EXPORT_DIR", "EXPORT_URL_PREFIX", "EXPORT_UPLOAD_TIMEOUT",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME", "R2_PUBLIC_URL",
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("API_BASE_URL", "https://orders.example.com/api/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://orders.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, cfg.APIBaseURL, cfg.SocketURL)
	assert.Equal(t, "tui", cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.ReconnectAttempts)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.RecentWindow)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.InDelta(t, 10.0, cfg.APIRateLimit, 0.001)
	assert.Equal(t, "local", cfg.ExportDriver)
}

func TestLoadConfig_Overrides(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("API_BASE_URL", "http://localhost:4000")
	t.Setenv("SOCKET_URL", "ws://localhost:4001/")
	t.Setenv("MODE", "serve")
	t.Setenv("RECONNECT_ATTEMPTS", "3")
	t.Setenv("RECONNECT_DELAY", "250ms")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("RECENT_WINDOW", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:4001", cfg.SocketURL)
	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, 3, cfg.ReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.InDelta(t, 2.5, cfg.APIRateLimit, 0.001)
	// Unparseable values fall back.
	assert.Equal(t, 5*time.Second, cfg.RecentWindow)
}

func TestLoadConfig_RequiresBaseURL(t *testing.T) {
	unsetEnv(t, allKeys...)

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "API_BASE_URL")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Mode:         "tui",
			APIBaseURL:   "http://localhost:4000",
			APIRateLimit: 10,
			APIRateBurst: 5,
			ExportDriver: "local",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "gui" }, "MODE"},
		{"negative attempts", func(c *Config) { c.ReconnectAttempts = -1 }, "RECONNECT_ATTEMPTS"},
		{"zero rate", func(c *Config) { c.APIRateLimit = 0 }, "API_RATE_LIMIT"},
		{"unknown driver", func(c *Config) { c.ExportDriver = "ftp" }, "EXPORT_DRIVER"},
		{"r2 without bucket", func(c *Config) { c.ExportDriver = "r2" }, "R2"},
		{"r2 complete", func(c *Config) {
			c.ExportDriver = "r2"
			c.R2AccountID = "acct"
			c.R2BucketName = "exports"
			c.R2PublicURL = "https://cdn.example.com"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
