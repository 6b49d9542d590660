package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"unfurl/internal/browser"
	"unfurl/internal/config"
	"unfurl/internal/extract"
	"unfurl/internal/fetch"
	"unfurl/internal/format"
	"unfurl/internal/storage"
	"unfurl/internal/unfurl"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	history *storage.BadgerRepository
	service *unfurl.Service
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// newApp loads configuration and wires the pipeline. openHistory forces the
// history database open even when recording is disabled.
func newApp(configDir string, openHistory bool) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	log := newLogger(cfg.Log)
	log.WithFields(logrus.Fields{
		"browser": cfg.Browser.Backend,
		"history": cfg.History.Enabled,
	}).Debug("Configuration loaded")

	a := &app{cfg: cfg, log: log}

	renderer, err := browser.New(browser.Options{
		Backend:  cfg.Browser.Backend,
		Bin:      cfg.Browser.Bin,
		Headless: cfg.Browser.Headless,
		Stealth:  cfg.Browser.Stealth,
	}, log)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Fetch.Timeout,
		WaitSelector: cfg.Fetch.WaitSelector,
	}, renderer, log)

	generic := extract.NewOGPExtractor(fetcher, cfg.Generic.RenderedHosts, log)
	social := extract.NewSocialExtractor(fetcher, extract.SocialOptions{
		Endpoint:      cfg.Social.OEmbedEndpoint,
		SiteName:      cfg.Social.SiteName,
		Render:        cfg.Social.Render,
		FrameSelector: cfg.Social.FrameSelector,
		ReadySelector: cfg.Social.ReadySelector,
	}, log)
	formatter := format.New(format.Options{
		SelfLinkFallback: cfg.Format.SelfLinkFallback,
		ImageTemplate:    cfg.Format.ImageTemplate,
		SocialPhoto:      cfg.Format.SocialPhoto,
	})

	var history storage.Repository
	if cfg.History.Enabled || openHistory {
		a.history, err = storage.NewBadgerRepository(cfg.History.Path, log)
		if err != nil {
			return nil, err
		}
		if cfg.History.Enabled {
			history = a.history
		}
	}

	a.service = unfurl.NewService(generic, social, formatter, history, log)
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.WithError(err).Error("Error closing history database")
		}
	}
}
