package unfurl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unfurl/internal/domain"
	"unfurl/internal/extract"
	"unfurl/internal/fetch"
	"unfurl/internal/format"
	"unfurl/internal/storage"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memoryHistory struct {
	entries []domain.Entry
	err     error
}

func (h *memoryHistory) SaveEntry(_ context.Context, e domain.Entry) error {
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, e)
	return nil
}

func (h *memoryHistory) ListEntries(context.Context, int) ([]domain.Entry, error) {
	return h.entries, nil
}

func (h *memoryHistory) DeleteEntry(context.Context, string) error { return nil }

func (h *memoryHistory) Close() error { return nil }

type stubExtractor struct {
	calls []string
}

func (e *stubExtractor) Extract(_ context.Context, rawURL string) (domain.Metadata, error) {
	e.calls = append(e.calls, rawURL)
	return &domain.Social{URL: rawURL, SiteName: "X"}, nil
}

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Write([]byte(`<html><head>
				<meta property="og:title" content="Hello">
				<meta property="og:image" content="/img.png">
			</head></html>`))
		case "/bare":
			w.Write([]byte(`<html><body><p>no tags</p></body></html>`))
		case "/canonical":
			w.Write([]byte(`<meta property="og:title" content="C"><meta property="og:url" content="https://ex.com/real">`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(history storage.Repository, social extract.Extractor, opts format.Options) *Service {
	fetcher := fetch.New(fetch.Options{}, nil, testLogger())
	generic := extract.NewOGPExtractor(fetcher, nil, testLogger())
	if social == nil {
		social = &stubExtractor{}
	}
	return NewService(generic, social, format.New(opts), history, testLogger())
}

func TestService_Unfurl_TitleAndImage(t *testing.T) {
	srv := newPageServer(t)
	history := &memoryHistory{}
	s := newTestService(history, nil, format.Options{})

	lines, err := s.Unfurl(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"> [Hello](" + srv.URL + "/page)",
		srv.URL + "/img.png",
	}, lines)

	require.Len(t, history.entries, 1)
	assert.Equal(t, srv.URL+"/page", history.entries[0].URL)
	assert.Equal(t, domain.KindOGP, history.entries[0].Kind)
	assert.Equal(t, lines, history.entries[0].Lines)
}

func TestService_Unfurl_NoTags(t *testing.T) {
	srv := newPageServer(t)

	lines, err := newTestService(nil, nil, format.Options{}).Unfurl(context.Background(), srv.URL+"/bare")
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = newTestService(nil, nil, format.Options{SelfLinkFallback: true}).Unfurl(context.Background(), srv.URL+"/bare")
	require.NoError(t, err)
	assert.Equal(t, []string{"> [" + srv.URL + "/bare](" + srv.URL + "/bare)"}, lines)
}

func TestService_Metadata_DeclaredURL(t *testing.T) {
	srv := newPageServer(t)

	m, err := newTestService(nil, nil, format.Options{}).Metadata(context.Background(), srv.URL+"/canonical")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/real", m.CanonicalURL())
}

func TestService_Unfurl_NotFound(t *testing.T) {
	srv := newPageServer(t)
	history := &memoryHistory{}

	lines, err := newTestService(history, nil, format.Options{}).Unfurl(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
	assert.Nil(t, lines)
	assert.Empty(t, history.entries)

	var fe *fetch.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Contains(t, err.Error(), srv.URL+"/gone")
}

func TestService_Unfurl_InvalidURL(t *testing.T) {
	s := newTestService(nil, nil, format.Options{})
	for _, u := range []string{"", "example.com", "ftp://example.com"} {
		_, err := s.Unfurl(context.Background(), u)
		assert.True(t, errors.Is(err, ErrInvalidURL), u)
	}
}

func TestService_Unfurl_RoutesSocial(t *testing.T) {
	social := &stubExtractor{}
	s := newTestService(nil, social, format.Options{})

	lines, err := s.Unfurl(context.Background(), "https://x.com/jack/status/20")
	require.NoError(t, err)
	assert.Equal(t, []string{"> *X*"}, lines)
	assert.Equal(t, []string{"https://x.com/jack/status/20"}, social.calls)
}

func TestService_Unfurl_HistoryFailureIgnored(t *testing.T) {
	srv := newPageServer(t)
	history := &memoryHistory{err: errors.New("disk full")}

	lines, err := newTestService(history, nil, format.Options{}).Unfurl(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}
