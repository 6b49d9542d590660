package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when no browser backend is configured.
var ErrUnavailable = errors.New("headless browser rendering is disabled")

// Target describes what to render.
type Target struct {
	// URL is navigated to when HTML is empty.
	URL string
	// HTML is loaded as the document content instead of navigating.
	HTML string
	// WaitSelector is the content-ready signal. Defaults to "body".
	WaitSelector string
	// FrameSelector, when set, selects an iframe whose document is returned
	// in place of the top-level document. WaitSelector then applies inside
	// the frame.
	FrameSelector string
}

func (t Target) waitSelector() string {
	if t.WaitSelector == "" {
		return "body"
	}
	return t.WaitSelector
}

// Result is the fully rendered markup.
type Result struct {
	HTML string
	// Status is the HTTP status of the top-level navigation, or 0 when the
	// document was loaded from Target.HTML.
	Status int
}

// Renderer drives a headless browser. Implementations acquire a browser per
// call and release it before returning, on every path.
type Renderer interface {
	Render(ctx context.Context, target Target) (Result, error)
}

// Options configures a Renderer.
type Options struct {
	// Backend is "rod", "chromedp" or "none".
	Backend  string
	Bin      string
	Headless bool
	Stealth  bool
}

// New returns the Renderer for opts.Backend. A "none" backend returns a
// Renderer that always fails with ErrUnavailable.
func New(opts Options, logger logrus.FieldLogger) (Renderer, error) {
	switch opts.Backend {
	case "", "rod":
		return NewRodRenderer(opts, logger), nil
	case "chromedp":
		return NewChromedpRenderer(opts, logger), nil
	case "none":
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q", opts.Backend)
	}
}

type disabled struct{}

func (disabled) Render(context.Context, Target) (Result, error) {
	return Result{}, ErrUnavailable
}
