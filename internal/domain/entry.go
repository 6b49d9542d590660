package domain

import "time"

// Entry is one produced preview kept in the unfurl history.
// It records what was written out, not the Metadata it was rendered from.
type Entry struct {
	// URL is the URL that was requested (and the history key).
	URL string `json:"url"`

	// CanonicalURL is the URL the page declared for itself.
	CanonicalURL string `json:"canonical_url"`

	// Kind is the metadata variant the preview was built from.
	Kind Kind `json:"kind"`

	// Lines are the formatted output lines.
	Lines []string `json:"lines"`

	// Timestamp indicates when the preview was produced.
	Timestamp time.Time `json:"timestamp"`
}
