package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "rod", cfg.Browser.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "https://publish.twitter.com/oembed", cfg.Social.OEmbedEndpoint)
	assert.False(t, cfg.Format.SelfLinkFallback)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Unfurl.Timeout)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log:
  level: debug
  format: json
fetch:
  timeout: 5s
  headers:
    Accept-Language: en
browser:
  backend: chromedp
generic:
  rendered_hosts: [app.example.com, spa.example.com]
format:
  self_link_fallback: true
  image_template: "![]($FILE_PATH)"
history:
  enabled: true
  path: /tmp/history
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "en", cfg.Fetch.Headers["accept-language"])
	assert.Equal(t, "chromedp", cfg.Browser.Backend)
	assert.Equal(t, []string{"app.example.com", "spa.example.com"}, cfg.Generic.RenderedHosts)
	assert.True(t, cfg.Format.SelfLinkFallback)
	assert.Equal(t, "![]($FILE_PATH)", cfg.Format.ImageTemplate)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/history", cfg.History.Path)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("UNFURL_BROWSER_BACKEND", "none")
	t.Setenv("UNFURL_SOCIAL_RENDER", "true")
	t.Setenv("UNFURL_TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Browser.Backend)
	assert.True(t, cfg.Social.Render)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("UNFURL_BROWSER_BACKEND", "selenium")
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
