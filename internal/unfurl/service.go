// Package unfurl ties the pipeline together: it validates and routes a URL,
// runs the matching extractor and formats the resulting metadata.
package unfurl

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"unfurl/internal/domain"
	"unfurl/internal/extract"
	"unfurl/internal/format"
	"unfurl/internal/storage"
)

// Service unfurls URLs. It keeps no per-request state, so one Service can
// serve concurrent requests.
type Service struct {
	extractors map[ExtractorKind]extract.Extractor
	formatter  *format.Formatter
	history    storage.Repository
	log        logrus.FieldLogger
}

// NewService creates a Service. history may be nil to disable recording.
func NewService(generic, social extract.Extractor, formatter *format.Formatter, history storage.Repository, logger logrus.FieldLogger) *Service {
	return &Service{
		extractors: map[ExtractorKind]extract.Extractor{
			KindGeneric: generic,
			KindSocial:  social,
		},
		formatter: formatter,
		history:   history,
		log:       logger.WithField("component", "unfurl"),
	}
}

// Metadata validates, routes and extracts rawURL.
func (s *Service) Metadata(ctx context.Context, rawURL string) (domain.Metadata, error) {
	if !ValidURL(rawURL) {
		return nil, &InvalidURLError{URL: rawURL}
	}
	kind, err := Route(rawURL)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"url": rawURL, "extractor": kind}).Debug("Routing URL")
	m, err := s.extractors[kind].Extract(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("unfurl %s: %w", rawURL, err)
	}
	return m, nil
}

// Unfurl returns the formatted preview lines for rawURL. A successful
// preview is recorded in the history when one is configured; failing to
// record it is logged and ignored.
func (s *Service) Unfurl(ctx context.Context, rawURL string) ([]string, error) {
	log := s.log.WithField("url", rawURL)
	log.Info("Fetching metadata")

	m, err := s.Metadata(ctx, rawURL)
	if err != nil {
		log.WithError(err).Error("Unfurl failed")
		return nil, err
	}
	lines := s.formatter.Format(m)

	if s.history != nil {
		entry := domain.Entry{
			URL:          rawURL,
			CanonicalURL: m.CanonicalURL(),
			Kind:         m.Kind(),
			Lines:        lines,
			Timestamp:    time.Now(),
		}
		if err := s.history.SaveEntry(ctx, entry); err != nil {
			log.WithError(err).Warn("Failed to record history entry")
		}
	}

	log.WithField("lines", len(lines)).Info("Unfurl completed")
	return lines, nil
}
