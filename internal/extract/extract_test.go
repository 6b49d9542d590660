package extract

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"unfurl/internal/browser"
	"unfurl/internal/fetch"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeRenderer struct {
	result browser.Result
	err    error
	got    []browser.Target
}

func (r *fakeRenderer) Render(_ context.Context, target browser.Target) (browser.Result, error) {
	r.got = append(r.got, target)
	return r.result, r.err
}

func newFetcher(r browser.Renderer) *fetch.Fetcher {
	return fetch.New(fetch.Options{}, r, testLogger())
}

func TestResolveURL(t *testing.T) {
	abs, ok := resolveURL("https://cdn.example.com/a.png?x=1", "https://ex.com/page")
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.png?x=1", abs)

	abs, ok = resolveURL("/img.png", "https://ex.com/page")
	assert.True(t, ok)
	assert.Equal(t, "https://ex.com/img.png", abs)

	abs, ok = resolveURL("img.png", "https://ex.com/dir/page")
	assert.True(t, ok)
	assert.Equal(t, "https://ex.com/dir/img.png", abs)

	abs, ok = resolveURL("//cdn.ex.com/a.png", "https://ex.com/")
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.ex.com/a.png", abs)

	_, ok = resolveURL("%zz", "https://ex.com/")
	assert.False(t, ok)

	_, ok = resolveURL("/img.png", "not a base")
	assert.False(t, ok)

	_, ok = resolveURL("   ", "https://ex.com/")
	assert.False(t, ok)
}
