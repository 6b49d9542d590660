package browser

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNew(t *testing.T) {
	r, err := New(Options{Backend: "rod"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &RodRenderer{}, r)

	r, err = New(Options{}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &RodRenderer{}, r)

	r, err = New(Options{Backend: "chromedp"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &ChromedpRenderer{}, r)

	_, err = New(Options{Backend: "selenium"}, testLogger())
	assert.Error(t, err)
}

func TestNew_None(t *testing.T) {
	r, err := New(Options{Backend: "none"}, testLogger())
	require.NoError(t, err)

	_, err = r.Render(context.Background(), Target{URL: "https://example.com"})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestRodRenderer_MissingBinary(t *testing.T) {
	r := NewRodRenderer(Options{Bin: "/nonexistent/chromium", Headless: true}, testLogger())
	_, err := r.Render(context.Background(), Target{HTML: "<p>hi</p>"})
	assert.Error(t, err)
}

func TestRodRenderer_HTML(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser available")
	}
	r := NewRodRenderer(Options{Headless: true}, testLogger())
	res, err := r.Render(context.Background(), Target{
		HTML:         `<html><body><p id="ready">rendered</p></body></html>`,
		WaitSelector: "#ready",
	})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "rendered")
	assert.Equal(t, 0, res.Status)
}

// countDebuggingProcesses counts running processes started with a remote
// debugging port, which every launched browser has.
func countDebuggingProcesses() (int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		cmdline, err := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if err != nil {
			continue
		}
		if strings.Contains(string(cmdline), "--remote-debugging-port") {
			n++
		}
	}
	return n, nil
}

func debuggingProcesses(t *testing.T) int {
	t.Helper()
	n, err := countDebuggingProcesses()
	if err != nil {
		t.Skip("process table not readable")
	}
	return n
}

func requireBrowserReleased(t *testing.T, before int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		n, err := countDebuggingProcesses()
		return err == nil && n <= before
	}, 10*time.Second, 100*time.Millisecond, "browser process left running")
}

func TestRodRenderer_CancelledContext(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser available")
	}
	before := debuggingProcesses(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRodRenderer(Options{Headless: true}, testLogger())
	_, err := r.Render(ctx, Target{HTML: `<p id="ready">x</p>`, WaitSelector: "#ready"})
	require.Error(t, err)
	requireBrowserReleased(t, before)
}

func TestRodRenderer_ReadySelectorTimeout(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser available")
	}
	before := debuggingProcesses(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := NewRodRenderer(Options{Headless: true}, testLogger())
	start := time.Now()
	_, err := r.Render(ctx, Target{HTML: `<p>never ready</p>`, WaitSelector: "#ready"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)
	requireBrowserReleased(t, before)
}
