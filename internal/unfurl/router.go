package unfurl

import (
	"net/url"
	"strings"
)

// ExtractorKind names the extraction strategy for a URL.
type ExtractorKind string

const (
	KindGeneric ExtractorKind = "generic"
	KindSocial  ExtractorKind = "social"
)

// socialHosts are the hostnames served by the oEmbed flow. Hostnames are
// lowercased before the exact lookup.
var socialHosts = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
}

// Route picks the extractor for rawURL by its hostname.
func Route(rawURL string) (ExtractorKind, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &InvalidURLError{URL: rawURL, Err: err}
	}
	if socialHosts[strings.ToLower(u.Hostname())] {
		return KindSocial, nil
	}
	return KindGeneric, nil
}
