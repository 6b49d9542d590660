package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches every *FetchError.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrParseFailed matches every *ParseError.
	ErrParseFailed = errors.New("parse failed")
)

// FetchError reports a non-success HTTP or navigation response. Status is
// zero when navigation failed before a response arrived; Err then holds the
// cause.
type FetchError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("failed to fetch %s: status %d\n%s", e.URL, e.Status, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// ParseError reports content that could not be turned into a document.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailed }
