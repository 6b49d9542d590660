package storage

import (
	"context"

	"unfurl/internal/domain"
)

// Repository stores the history of produced previews.
// It is a journal for listing past unfurls, never consulted to skip a fetch.
type Repository interface {
	// SaveEntry stores an entry, replacing any earlier entry for entry.URL.
	SaveEntry(ctx context.Context, entry domain.Entry) error

	// ListEntries returns stored entries newest first. limit <= 0 returns all.
	ListEntries(ctx context.Context, limit int) ([]domain.Entry, error)

	// DeleteEntry removes the entry for url. Deleting a missing entry is not an error.
	DeleteEntry(ctx context.Context, url string) error

	// Close gracefully shuts down the repository connection.
	Close() error
}
