package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or UNFURL_* environment
// variables (e.g. UNFURL_BROWSER_BACKEND).
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Generic  GenericConfig  `mapstructure:"generic"`
	Social   SocialConfig   `mapstructure:"social"`
	Format   FormatConfig   `mapstructure:"format"`
	History  HistoryConfig  `mapstructure:"history"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Unfurl   UnfurlConfig   `mapstructure:"unfurl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type FetchConfig struct {
	UserAgent    string            `mapstructure:"user_agent"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	Headers      map[string]string `mapstructure:"headers"`
	WaitSelector string            `mapstructure:"wait_selector"`
}

type BrowserConfig struct {
	Backend  string `mapstructure:"backend"` // rod, chromedp or none
	Bin      string `mapstructure:"bin"`
	Headless bool   `mapstructure:"headless"`
	Stealth  bool   `mapstructure:"stealth"`
}

type GenericConfig struct {
	// RenderedHosts are fetched through the headless browser.
	RenderedHosts []string `mapstructure:"rendered_hosts"`
}

type SocialConfig struct {
	OEmbedEndpoint string `mapstructure:"oembed_endpoint"`
	SiteName       string `mapstructure:"site_name"`
	Render         bool   `mapstructure:"render"`
	FrameSelector  string `mapstructure:"frame_selector"`
	ReadySelector  string `mapstructure:"ready_selector"`
}

type FormatConfig struct {
	SelfLinkFallback bool   `mapstructure:"self_link_fallback"`
	ImageTemplate    string `mapstructure:"image_template"`
	SocialPhoto      bool   `mapstructure:"social_photo"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

type UnfurlConfig struct {
	// Timeout bounds a whole unfurl request. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.headers", map[string]string{})
	v.SetDefault("fetch.wait_selector", "body")
	v.SetDefault("browser.backend", "rod")
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("generic.rendered_hosts", []string{})
	v.SetDefault("social.oembed_endpoint", "https://publish.twitter.com/oembed")
	v.SetDefault("social.site_name", "X (formerly Twitter)")
	v.SetDefault("social.render", false)
	v.SetDefault("social.frame_selector", "iframe")
	v.SetDefault("social.ready_selector", "article")
	v.SetDefault("format.self_link_fallback", false)
	v.SetDefault("format.image_template", "")
	v.SetDefault("format.social_photo", false)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "./unfurl_history")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("unfurl.timeout", 45*time.Second)
}

// LoadConfig reads config.yaml from path (if present) and the environment.
// A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("UNFURL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Browser.Backend {
	case "rod", "chromedp", "none":
	default:
		return fmt.Errorf("browser.backend must be rod, chromedp or none, got %q", c.Browser.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path is required when history is enabled")
	}
	return nil
}
