package browser

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

// RodRenderer implements Renderer using the rod library.
type RodRenderer struct {
	opts Options
	log  logrus.FieldLogger
}

// NewRodRenderer creates a rod-backed renderer. No browser is started until
// Render is called.
func NewRodRenderer(opts Options, logger logrus.FieldLogger) *RodRenderer {
	return &RodRenderer{
		opts: opts,
		log:  logger.WithField("component", "browser_rod"),
	}
}

func (r *RodRenderer) launcher(ctx context.Context) (*launcher.Launcher, error) {
	path := r.opts.Bin
	if path == "" {
		var exists bool
		path, exists = launcher.LookPath()
		if !exists {
			return nil, errors.New("rod browser dependency not found")
		}
	}
	return launcher.New().
		Context(ctx).
		Bin(path).
		Headless(r.opts.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage"), nil
}

func (r *RodRenderer) page(browser *rod.Browser) (*rod.Page, error) {
	if r.opts.Stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

// Render launches a fresh browser, loads target and returns the markup.
// The browser process is closed (and killed if closing fails) before
// Render returns.
func (r *RodRenderer) Render(ctx context.Context, target Target) (res Result, err error) {
	log := r.log.WithField("url", target.URL)
	log.Debug("Rendering with rod")

	l, err := r.launcher(ctx)
	if err != nil {
		log.WithError(err).Error("Cannot find browser executable for rod")
		return Result{}, err
	}
	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return Result{}, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err = browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		log.WithError(err).Error("Failed to connect to rod browser")
		return Result{}, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser, killing process")
			l.Kill()
		}
		l.Cleanup()
		log.Debug("Rod browser released")
	}()

	page, err := r.page(browser)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create page: %w", err)
	}

	if target.HTML != "" {
		if err = page.SetDocumentContent(target.HTML); err != nil {
			return Result{}, fmt.Errorf("failed to set document content: %w", err)
		}
	} else {
		var status atomic.Int64
		wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
			if e.Type != proto.NetworkResourceTypeDocument {
				return false
			}
			status.CompareAndSwap(0, int64(e.Response.Status))
			return true
		})
		go wait()

		if err = page.Navigate(target.URL); err != nil {
			return Result{}, fmt.Errorf("failed to navigate to %s: %w", target.URL, err)
		}
		if err = page.WaitLoad(); err != nil {
			return Result{}, fmt.Errorf("failed waiting for page load: %w", err)
		}
		res.Status = int(status.Load())
	}

	doc := page
	if target.FrameSelector != "" {
		el, err := page.Element(target.FrameSelector)
		if err != nil {
			return Result{}, fmt.Errorf("frame %q not found: %w", target.FrameSelector, err)
		}
		if doc, err = el.Frame(); err != nil {
			return Result{}, fmt.Errorf("failed to enter frame %q: %w", target.FrameSelector, err)
		}
	}

	if _, err = doc.Element(target.waitSelector()); err != nil {
		return Result{}, fmt.Errorf("content-ready selector %q: %w", target.waitSelector(), err)
	}
	if res.HTML, err = doc.HTML(); err != nil {
		return Result{}, fmt.Errorf("failed to read rendered html: %w", err)
	}

	log.WithField("status", res.Status).Debug("Rod render completed")
	return res, nil
}
