package unfurl

import (
	"net/url"
	"strings"
)

var allowedSchemes = map[string]bool{"http": true, "https": true, "file": true}

// ValidURL reports whether candidate is a URL this package can unfurl:
// it must parse and use the http, https or file scheme. Web URLs also need
// a host.
func ValidURL(candidate string) bool {
	if candidate == "" {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return false
	}
	if scheme != "file" && u.Hostname() == "" {
		return false
	}
	return true
}
