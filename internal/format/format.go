// Package format renders domain.Metadata as Markdown quote lines.
package format

import (
	"regexp"
	"strings"

	"unfurl/internal/domain"
)

// ImagePlaceholder is replaced with the image URL in Options.ImageTemplate.
const ImagePlaceholder = "$FILE_PATH"

var newlines = regexp.MustCompile(`[\r\n]+`)

// Options are the user-overridable rendering options.
type Options struct {
	// SelfLinkFallback emits "> [url](url)" when nothing else would be
	// written. Off by default: an empty preview renders no lines.
	SelfLinkFallback bool
	// ImageTemplate wraps image URLs, e.g. "![]($FILE_PATH)". Empty writes
	// the URL verbatim.
	ImageTemplate string
	// SocialPhoto adds the post's photo line to social previews.
	SocialPhoto bool
}

// Formatter turns metadata into output lines. It holds no state besides its
// options, so Format is safe for concurrent use.
type Formatter struct {
	opts Options
}

// New creates a Formatter with opts.
func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

// Format renders m. The result depends only on m and the options.
func (f *Formatter) Format(m domain.Metadata) []string {
	var lines []string
	switch m := m.(type) {
	case *domain.OGP:
		lines = f.ogp(m)
	case *domain.Social:
		lines = f.social(m)
	default:
		return nil
	}
	if len(lines) == 0 && f.opts.SelfLinkFallback && m.CanonicalURL() != "" {
		u := m.CanonicalURL()
		lines = append(lines, quote(link(u, u)))
	}
	return lines
}

func (f *Formatter) ogp(m *domain.OGP) []string {
	var lines []string
	if site, ok := m.SiteName.Get(); ok {
		lines = append(lines, quote(emphasis(site)))
	}
	if title, ok := m.Title.Get(); ok {
		lines = append(lines, quote(link(title, m.URL)))
	}
	if img, ok := m.ImageURL.Get(); ok {
		lines = append(lines, f.image(img))
	}
	if desc, ok := m.Description.Get(); ok {
		lines = append(lines, quoteEach(desc)...)
	}
	return lines
}

func (f *Formatter) social(m *domain.Social) []string {
	var lines []string
	if m.SiteName != "" {
		lines = append(lines, quote(emphasis(m.SiteName)))
	}
	if m.AuthorURL != "" {
		lines = append(lines, quote(link(m.AuthorName, m.AuthorURL)))
	}
	if body, ok := m.BodyText.Get(); ok {
		lines = append(lines, quoteEach(body)...)
	}
	if photo, ok := m.PhotoURL.Get(); ok && f.opts.SocialPhoto {
		lines = append(lines, f.image(photo))
	}
	return lines
}

func (f *Formatter) image(u string) string {
	if f.opts.ImageTemplate == "" {
		return u
	}
	return strings.ReplaceAll(f.opts.ImageTemplate, ImagePlaceholder, u)
}

func quote(s string) string {
	return "> " + s
}

// quoteEach quotes every line of s separately.
func quoteEach(s string) []string {
	parts := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = quote(p)
	}
	return lines
}

func emphasis(s string) string {
	return "*" + s + "*"
}

// link builds a Markdown link. Line breaks in text collapse to one space and
// an empty target becomes "#".
func link(text, target string) string {
	text = strings.TrimSpace(newlines.ReplaceAllString(text, " "))
	if target == "" || target == "#" {
		target = "#"
	}
	return "[" + text + "](" + target + ")"
}
