package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"unfurl/internal/domain"
	"unfurl/internal/fetch"
)

// OGPExtractor builds previews of generic pages from their Open Graph tags.
type OGPExtractor struct {
	fetcher       Fetcher
	renderedHosts map[string]bool
	log           logrus.FieldLogger
}

// NewOGPExtractor creates an extractor that fetches pages statically, except
// for hosts listed in renderedHosts which are loaded in a headless browser.
func NewOGPExtractor(fetcher Fetcher, renderedHosts []string, logger logrus.FieldLogger) *OGPExtractor {
	hosts := make(map[string]bool, len(renderedHosts))
	for _, h := range renderedHosts {
		hosts[h] = true
	}
	return &OGPExtractor{
		fetcher:       fetcher,
		renderedHosts: hosts,
		log:           logger.WithField("component", "ogp_extractor"),
	}
}

func (e *OGPExtractor) mode(rawURL string) fetch.Mode {
	u, err := url.Parse(rawURL)
	if err == nil && e.renderedHosts[u.Hostname()] {
		return fetch.ModeRendered
	}
	return fetch.ModeStatic
}

// Extract fetches rawURL and reads its Open Graph metadata.
func (e *OGPExtractor) Extract(ctx context.Context, rawURL string) (domain.Metadata, error) {
	log := e.log.WithField("url", rawURL)

	doc, err := e.fetcher.FetchDocument(ctx, rawURL, e.mode(rawURL))
	if err != nil {
		log.WithError(err).Error("Failed to fetch page")
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	m := ExtractOGP(doc, rawURL)
	if raw, ok := metaContent(doc, "og:image"); ok && strings.TrimSpace(raw) != "" && !m.ImageURL.Present() {
		log.WithFields(logrus.Fields{"og_image": raw, "base": rawURL}).Warn("Failed to resolve og:image, dropping it")
	}
	log.WithFields(logrus.Fields{
		"canonical": m.URL,
		"title":     m.Title.String(),
	}).Debug("Extracted Open Graph metadata")
	return m, nil
}

// ExtractOGP reads the Open Graph preview from doc. baseURL is the URL the
// document was fetched from; it resolves relative image URLs and stands in
// for a missing og:url.
func ExtractOGP(doc *goquery.Document, baseURL string) *domain.OGP {
	m := &domain.OGP{
		URL:         baseURL,
		Title:       ogpTitle(doc),
		SiteName:    metaText(doc, "og:site_name"),
		Description: metaText(doc, "og:description"),
	}
	if u, ok := metaText(doc, "og:url").Get(); ok {
		m.URL = u
	}
	if raw, ok := metaContent(doc, "og:image"); ok {
		if abs, ok := resolveURL(raw, baseURL); ok {
			m.ImageURL = domain.TextOf(abs)
		}
	}
	return m
}

func metaText(doc *goquery.Document, property string) domain.Text {
	content, _ := metaContent(doc, property)
	return domain.TextOf(content)
}

func ogpTitle(doc *goquery.Document) domain.Text {
	if t := metaText(doc, "og:title"); t.Present() {
		return t
	}
	return domain.TextOf(doc.Find("title").First().Text())
}
