// Package extract turns fetched pages and oEmbed payloads into
// domain.Metadata.
package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"unfurl/internal/browser"
	"unfurl/internal/domain"
	"unfurl/internal/fetch"
)

// Extractor builds the metadata for one URL.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (domain.Metadata, error)
}

// Fetcher is the subset of *fetch.Fetcher the extractors depend on.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string, mode fetch.Mode) (*goquery.Document, error)
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
	Render(ctx context.Context, target browser.Target) (*goquery.Document, error)
}

// resolveURL returns raw as an absolute URL. raw is kept verbatim when it
// is already absolute, otherwise it is resolved against base. ok is false
// when neither works.
func resolveURL(raw, base string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw, true
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return b.ResolveReference(ref).String(), true
}

// metaContent returns the content attribute of the first
// <meta property="..."> tag.
func metaContent(doc *goquery.Document, property string) (string, bool) {
	return doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
}

// textWithBreaks returns the text of s with <br> elements kept as newlines.
func textWithBreaks(s *goquery.Selection) string {
	s = s.Clone()
	s.Find("br").ReplaceWithHtml("\n")
	return s.Text()
}
