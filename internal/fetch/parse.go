package fetch

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errEmptyDocument = errors.New("empty document")

// Parse turns markup into a queryable document. sourceURL only labels errors.
func Parse(sourceURL, markup string) (*goquery.Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, &ParseError{URL: sourceURL, Err: errEmptyDocument}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &ParseError{URL: sourceURL, Err: err}
	}
	return doc, nil
}
