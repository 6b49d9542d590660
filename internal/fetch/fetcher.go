// Package fetch retrieves remote pages and JSON documents. Pages are fetched
// either with a plain HTTP GET or through a headless browser, and parsed with
// goquery.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"unfurl/internal/browser"
)

const (
	// DefaultUserAgent is a desktop Chrome UA, sent when none is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultTimeout   = 30 * time.Second

	maxBodyBytes  = 10 << 20
	maxErrorBytes = 2 << 10
)

// Mode selects how a page is retrieved.
type Mode int

const (
	// ModeStatic issues a single HTTP GET.
	ModeStatic Mode = iota
	// ModeRendered loads the page in a headless browser and reads the
	// markup after scripts have run.
	ModeRendered
)

func (m Mode) String() string {
	if m == ModeRendered {
		return "rendered"
	}
	return "static"
}

// Options configures a Fetcher.
type Options struct {
	UserAgent string
	// Headers are sent with every static request.
	Headers map[string]string
	// Timeout bounds a single static request.
	Timeout time.Duration
	// WaitSelector is the content-ready signal for rendered page fetches.
	WaitSelector string
}

// Fetcher retrieves documents over HTTP or through a Renderer.
type Fetcher struct {
	client   *http.Client
	renderer browser.Renderer
	opts     Options
	log      logrus.FieldLogger
}

// New creates a Fetcher. renderer may be nil, in which case rendered fetches
// fail with browser.ErrUnavailable. file:// URLs are served from the local
// filesystem.
func New(opts Options, renderer browser.Renderer, logger logrus.FieldLogger) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))

	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout, Transport: transport},
		renderer: renderer,
		opts:     opts,
		log:      logger.WithField("component", "fetcher"),
	}
}

// FetchDocument retrieves url in the given mode and parses it.
func (f *Fetcher) FetchDocument(ctx context.Context, url string, mode Mode) (*goquery.Document, error) {
	log := f.log.WithFields(logrus.Fields{"url": url, "mode": mode.String()})
	log.Debug("Fetching document")

	var markup string
	switch mode {
	case ModeRendered:
		res, err := f.render(ctx, browser.Target{URL: url, WaitSelector: f.opts.WaitSelector})
		if err != nil {
			if errors.Is(err, browser.ErrUnavailable) || ctx.Err() != nil {
				return nil, err
			}
			return nil, &FetchError{URL: url, Err: err}
		}
		if res.Status != 0 && !success(res.Status) {
			log.WithField("status", res.Status).Warn("Navigation returned non-success status")
			return nil, &FetchError{URL: url, Status: res.Status, Body: truncate(res.HTML)}
		}
		markup = res.HTML
	default:
		body, err := f.Get(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		markup = string(body)
	}

	return Parse(url, markup)
}

// Render loads target in the headless browser and parses the result.
func (f *Fetcher) Render(ctx context.Context, target browser.Target) (*goquery.Document, error) {
	res, err := f.render(ctx, target)
	if err != nil {
		return nil, err
	}
	return Parse(target.URL, res.HTML)
}

func (f *Fetcher) render(ctx context.Context, target browser.Target) (browser.Result, error) {
	if f.renderer == nil {
		return browser.Result{}, browser.ErrUnavailable
	}
	return f.renderer.Render(ctx, target)
}

// Get issues a GET for url and returns the body. headers override the
// configured defaults. A non-2xx status yields a *FetchError.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if !success(resp.StatusCode) {
		f.log.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode,
		}).Warn("Non-success HTTP status")
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Body: truncate(string(body))}
	}
	return body, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// truncate cuts body to at most maxErrorBytes without splitting a rune.
func truncate(body string) string {
	if len(body) <= maxErrorBytes {
		return body
	}
	end := maxErrorBytes
	for end > 0 && !utf8.RuneStart(body[end]) {
		end--
	}
	return body[:end]
}

// IsFetchFailed reports whether err carries a *FetchError and returns it.
func IsFetchFailed(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
