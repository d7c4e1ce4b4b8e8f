package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/message"
	"example.com/attendance/internal/router"
)

// failureNotice is sent when a command could not be recorded.
var failureNotice = new(message.Builder).
	Text("⚠️ ").Bold("系统繁忙，请稍后再试。").Line().
	Text("Something went wrong, please try again.").
	Message()

// CommandRouter is the part of router.Router the bot drives.
type CommandRouter interface {
	Initialize(ctx context.Context, ev router.Event) (message.Message, error)
	Handle(ctx context.Context, ev router.Event) (message.Message, error)
}

// Sender delivers outgoing messages.
type Sender interface {
	SendMessage(ctx context.Context, req SendMessageRequest) error
}

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithLogger overrides the bot logger.
func WithLogger(logger *slog.Logger) BotOption {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bot maps updates to router events and sends the replies.
type Bot struct {
	router   CommandRouter
	sender   Sender
	logger   *slog.Logger
	keyboard *ReplyKeyboardMarkup
}

// NewBot constructs a Bot.
func NewBot(r CommandRouter, sender Sender, opts ...BotOption) *Bot {
	b := &Bot{
		router:   r,
		sender:   sender,
		logger:   slog.Default().With("component", "bot"),
		keyboard: MainKeyboard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleUpdate processes one update. Only delivery failures are returned;
// routing failures are logged and answered with a failure notice.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) error {
	msg := u.Message
	if msg == nil || msg.From == nil {
		recordUpdate("ignored")
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		recordUpdate("ignored")
		return nil
	}

	ev := router.Event{UserID: msg.From.ID, UserName: msg.From.FirstName, Command: text}

	var (
		reply message.Message
		err   error
	)
	switch {
	case isStartCommand(text):
		reply, err = b.router.Initialize(ctx, ev)
	case strings.HasPrefix(text, "/"):
		recordUpdate("ignored")
		return nil
	default:
		reply, err = b.router.Handle(ctx, ev)
	}

	if err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			recordUpdate("malformed")
			return nil
		}
		recordUpdate("failed")
		b.logger.Error("command failed", "update_id", u.UpdateID, "user_id", ev.UserID, "error", err)
		return b.send(ctx, msg.Chat.ID, failureNotice)
	}
	if reply.Empty() {
		recordUpdate("ignored")
		return nil
	}
	recordUpdate("handled")
	return b.send(ctx, msg.Chat.ID, reply)
}

func (b *Bot) send(ctx context.Context, chatID int64, reply message.Message) error {
	return b.sender.SendMessage(ctx, SendMessageRequest{
		ChatID:      chatID,
		Text:        reply.HTML(),
		ParseMode:   ParseModeHTML,
		ReplyMarkup: b.keyboard,
	})
}

// isStartCommand matches "/start", "/start payload" and "/start@bot".
func isStartCommand(text string) bool {
	rest, ok := strings.CutPrefix(text, "/start")
	if !ok {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '@'
}
