package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"unfurl/internal/fetch"
	"unfurl/internal/unfurl"
)

// Unfurler produces preview lines for a URL.
type Unfurler interface {
	Unfurl(ctx context.Context, rawURL string) ([]string, error)
}

// Handler answers chat messages containing URLs with their previews.
type Handler struct {
	bot      *tgbot.Bot
	unfurler Unfurler
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewHandler creates a new bot handler instance. timeout bounds each unfurl;
// zero means no limit.
func NewHandler(token string, unfurler Unfurler, timeout time.Duration, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}

	h := &Handler{
		unfurler: unfurler,
		timeout:  timeout,
		log:      log,
	}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, "Send me a link and I'll reply with its preview.")
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	for _, u := range urlsInText(update.Message.Text) {
		log := h.log.WithFields(logrus.Fields{"chat_id": chatID, "url": u})

		reqCtx, cancel := h.requestContext(ctx)
		lines, err := h.unfurler.Unfurl(reqCtx, u)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Unfurl failed")
			h.send(ctx, b, chatID, failureText(u, err))
			continue
		}
		if len(lines) == 0 {
			log.Info("No lines to insert")
			h.send(ctx, b, chatID, "No preview found for "+u)
			continue
		}
		h.send(ctx, b, chatID, replyText(lines))
	}
}

func (h *Handler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *Handler) send(ctx context.Context, b *tgbot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// urlsInText returns the distinct unfurlable URLs in text, in order.
func urlsInText(text string) []string {
	var urls []string
	seen := map[string]bool{}
	for _, field := range strings.Fields(text) {
		field = trimURL(field)
		if !unfurl.ValidURL(field) || strings.HasPrefix(field, "file:") || seen[field] {
			continue
		}
		seen[field] = true
		urls = append(urls, field)
	}
	return urls
}

// trimURL strips surrounding punctuation from a whitespace-separated token.
// A trailing ")" is kept while it closes a "(" inside the URL.
func trimURL(field string) string {
	field = strings.TrimLeft(field, "<([\"'")
	for field != "" {
		last := field[len(field)-1]
		switch {
		case strings.IndexByte(">]\"'.,;!", last) >= 0:
		case last == ')' && strings.Count(field, "(") < strings.Count(field, ")"):
		default:
			return field
		}
		field = field[:len(field)-1]
	}
	return field
}

// replyText joins preview lines into one message.
func replyText(lines []string) string {
	return strings.Join(lines, "\n")
}

func failureText(u string, err error) string {
	if fe, ok := fetch.IsFetchFailed(err); ok && fe.Status == 0 {
		return "Could not reach " + u
	} else if ok {
		return fmt.Sprintf("Could not fetch %s (status %d)", u, fe.Status)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out fetching " + u
	}
	return "Could not unfurl " + u
}
