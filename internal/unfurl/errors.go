package unfurl

import (
	"errors"
	"fmt"
)

// ErrInvalidURL matches every *InvalidURLError.
var ErrInvalidURL = errors.New("invalid url")

// InvalidURLError reports a URL that failed validation or could not be parsed.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid url %q: scheme must be http, https or file", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

func (e *InvalidURLError) Is(target error) bool { return target == ErrInvalidURL }
