package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"BASE_URL", "TARGET_PAGES", "HEADLESS", "DATABASE_URL", "PORT", "LOG_LEVEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "")
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.actuarylist.com/", cfg.BaseURL)
	assert.Equal(t, 10, cfg.TargetPages)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, filepath.Join(os.TempDir(), "actuarylist-scraper.lock"), cfg.LockPath)
	assert.Equal(t, 20*time.Second, cfg.Timing.LoadTimeout)
	assert.Equal(t, 4*time.Second, cfg.Timing.FallbackDelay)
	assert.False(t, cfg.TelegramEnabled())
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoadFile_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
target_pages: 3
headless: false
timing:
  settle_delay: 500ms
`)
	clearEnv(t)
	t.Setenv("TARGET_PAGES", "4")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.TargetPages)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.SettleDelay)
	//untouched timing fields keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Timing.ContentTimeout)
	assert.NoError(t, cfg.RequireDatabase())
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "zero pages", yaml: "target_pages: 0"},
		{name: "bad url", yaml: "base_url: ftp://example.com"},
		{name: "bad port", yaml: `port: "99999"`},
		{name: "bad yaml", yaml: "target_pages: [1"},
		{name: "bad env", env: map[string]string{"HEADLESS": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
