package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"unfurl/internal/fetch"
)

func TestURLsInText(t *testing.T) {
	text := "look at https://example.com/a, and (https://x.com/u/status/1) " +
		"plus https://example.com/a again; not example.com or ftp://f.example or file:///etc/passwd"
	assert.Equal(t, []string{"https://example.com/a", "https://x.com/u/status/1"}, urlsInText(text))
	assert.Empty(t, urlsInText("no links here"))
}

func TestURLsInText_Parentheses(t *testing.T) {
	wiki := "https://en.wikipedia.org/wiki/Go_(programming_language)"
	assert.Equal(t, []string{wiki}, urlsInText("see "+wiki))
	assert.Equal(t, []string{wiki}, urlsInText("see ("+wiki+")."))
	assert.Equal(t, []string{"https://example.com/a"}, urlsInText("(https://example.com/a)"))
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, "> *Site*\n> [T](https://e.com)", replyText([]string{"> *Site*", "> [T](https://e.com)"}))
}

func TestFailureText(t *testing.T) {
	err := fmt.Errorf("unfurl: %w", &fetch.FetchError{URL: "https://e.com", Status: 404})
	assert.Equal(t, "Could not fetch https://e.com (status 404)", failureText("https://e.com", err))

	reach := &fetch.FetchError{URL: "https://e.com", Err: errors.New("connection refused")}
	assert.Equal(t, "Could not reach https://e.com", failureText("https://e.com", reach))

	assert.Equal(t, "Timed out fetching https://e.com", failureText("https://e.com", context.DeadlineExceeded))
	assert.Equal(t, "Could not unfurl https://e.com", failureText("https://e.com", errors.New("boom")))
}

func TestNewHandler_RequiresToken(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	_, err := NewHandler("", nil, 0, log)
	assert.Error(t, err)
}
