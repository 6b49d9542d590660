package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"unfurl/internal/browser"
	"unfurl/internal/domain"
	"unfurl/internal/fetch"
)

const (
	DefaultOEmbedEndpoint = "https://publish.twitter.com/oembed"
	DefaultSocialSiteName = "X (formerly Twitter)"

	oembedUserAgent = "Mozilla/5.0 (compatible; unfurl)"
	photoSuffix     = "/photo/1"
)

// SocialOptions configures a SocialExtractor.
type SocialOptions struct {
	// Endpoint is the platform's oEmbed API.
	Endpoint string
	// SiteName is the fixed label put on every preview.
	SiteName string
	// Render loads the embed fragment in a headless browser to recover the
	// post text and photo.
	Render bool
	// FrameSelector selects the iframe the embed script renders into.
	FrameSelector string
	// ReadySelector signals that the embedded post has rendered.
	ReadySelector string
}

func (o SocialOptions) withDefaults() SocialOptions {
	if o.Endpoint == "" {
		o.Endpoint = DefaultOEmbedEndpoint
	}
	if o.SiteName == "" {
		o.SiteName = DefaultSocialSiteName
	}
	if o.FrameSelector == "" {
		o.FrameSelector = "iframe"
	}
	if o.ReadySelector == "" {
		o.ReadySelector = "article"
	}
	return o
}

// oembedResponse is the part of the oEmbed payload the preview uses.
type oembedResponse struct {
	URL        string `json:"url"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	HTML       string `json:"html"`
}

// SocialExtractor builds previews of social posts from the platform's oEmbed
// API instead of scraping the post page.
type SocialExtractor struct {
	fetcher Fetcher
	opts    SocialOptions
	log     logrus.FieldLogger
}

// NewSocialExtractor creates a SocialExtractor. Zero option fields take
// their defaults.
func NewSocialExtractor(fetcher Fetcher, opts SocialOptions, logger logrus.FieldLogger) *SocialExtractor {
	return &SocialExtractor{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		log:     logger.WithField("component", "social_extractor"),
	}
}

// Extract fetches the oEmbed payload for rawURL. Failing to recover the body
// text or photo never fails the request.
func (e *SocialExtractor) Extract(ctx context.Context, rawURL string) (domain.Metadata, error) {
	log := e.log.WithField("url", rawURL)

	payload, err := e.oembed(ctx, rawURL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch oEmbed payload")
		return nil, err
	}

	m := &domain.Social{
		URL:        rawURL,
		SiteName:   e.opts.SiteName,
		AuthorName: strings.TrimSpace(payload.AuthorName),
		AuthorURL:  strings.TrimSpace(payload.AuthorURL),
	}
	if u := strings.TrimSpace(payload.URL); u != "" {
		m.URL = u
	}

	if e.opts.Render && payload.HTML != "" {
		m.BodyText, m.PhotoURL = e.rendered(ctx, payload.HTML, m.URL)
	}
	if !m.BodyText.Present() {
		m.BodyText = staticBodyText(payload.HTML)
	}

	log.WithFields(logrus.Fields{
		"canonical": m.URL,
		"author":    m.AuthorName,
		"has_body":  m.BodyText.Present(),
		"has_photo": m.PhotoURL.Present(),
	}).Debug("Extracted social metadata")
	return m, nil
}

func (e *SocialExtractor) oembed(ctx context.Context, rawURL string) (*oembedResponse, error) {
	endpoint, err := url.Parse(e.opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid oEmbed endpoint %q: %w", e.opts.Endpoint, err)
	}
	q := endpoint.Query()
	q.Set("url", rawURL)
	endpoint.RawQuery = q.Encode()

	body, err := e.fetcher.Get(ctx, endpoint.String(), map[string]string{
		"User-Agent": oembedUserAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching oEmbed: %w", err)
	}

	var payload oembedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &fetch.ParseError{URL: endpoint.String(), Err: err}
	}
	return &payload, nil
}

// rendered loads the embed fragment in the browser and reads the post text
// and the first photo. Errors only leave the fields absent.
func (e *SocialExtractor) rendered(ctx context.Context, fragment, canonical string) (body, photo domain.Text) {
	log := e.log.WithField("url", canonical)

	doc, err := e.fetcher.Render(ctx, browser.Target{
		URL:           canonical,
		HTML:          fragment,
		FrameSelector: e.opts.FrameSelector,
		WaitSelector:  e.opts.ReadySelector,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to render embed, falling back to static fragment")
		return domain.Absent, domain.Absent
	}

	body = renderedBodyText(doc)
	if !body.Present() {
		log.Debug("No post text found in rendered embed")
	}
	photo = photoURL(doc, canonical)
	if !photo.Present() {
		log.Debug("No photo found in rendered embed")
	}
	return body, photo
}

func renderedBodyText(doc *goquery.Document) domain.Text {
	for _, sel := range []string{`[data-testid="tweetText"]`, "blockquote p"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := domain.TextOf(textWithBreaks(s)); t.Present() {
				return t
			}
		}
	}
	return domain.Absent
}

// photoURL finds the image inside the link to canonical+"/photo/1".
func photoURL(doc *goquery.Document, canonical string) domain.Text {
	want := canonical + photoSuffix
	var found domain.Text
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if abs, ok := resolveURL(href, canonical); !ok || abs != want {
			return true
		}
		src, ok := a.Find("img[src]").First().Attr("src")
		if !ok {
			return true
		}
		if abs, ok := resolveURL(src, canonical); ok {
			found = domain.TextOf(abs)
			return false
		}
		return true
	})
	return found
}

// staticBodyText reads the post text from the unrendered oEmbed fragment.
func staticBodyText(fragment string) domain.Text {
	if strings.TrimSpace(fragment) == "" {
		return domain.Absent
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return domain.Absent
	}
	p := doc.Find("blockquote p").First()
	if p.Length() == 0 {
		return domain.Absent
	}
	return domain.TextOf(textWithBreaks(p))
}
