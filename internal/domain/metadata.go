package domain

// Kind tags a Metadata variant.
type Kind string

const (
	KindOGP    Kind = "ogp"
	KindSocial Kind = "social"
)

// Metadata is the normalized preview of one unfurled URL.
// It is implemented only by *OGP and *Social.
type Metadata interface {
	Kind() Kind
	// CanonicalURL is the page's declared URL, or the requested URL when
	// the page declares none.
	CanonicalURL() string

	isMetadata()
}

// OGP is the preview of a generic page described by Open Graph tags.
type OGP struct {
	URL         string `json:"url"`
	Title       Text   `json:"title"`
	SiteName    Text   `json:"site_name"`
	ImageURL    Text   `json:"image_url"`
	Description Text   `json:"description"`
}

func (*OGP) Kind() Kind             { return KindOGP }
func (m *OGP) CanonicalURL() string { return m.URL }
func (*OGP) isMetadata()            {}

// Social is the preview of a post on a social platform, built from the
// platform's oEmbed payload.
type Social struct {
	URL        string `json:"url"`
	SiteName   string `json:"site_name"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	BodyText   Text   `json:"body_text"`
	PhotoURL   Text   `json:"photo_url"`
}

func (*Social) Kind() Kind             { return KindSocial }
func (m *Social) CanonicalURL() string { return m.URL }
func (*Social) isMetadata()            {}
