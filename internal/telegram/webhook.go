package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// WebhookPath is where the webhook is mounted.
const WebhookPath = "/v1/telegram/webhook"

// SecretHeader carries the secret token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// WebhookHandler accepts webhook deliveries.
type WebhookHandler struct {
	bot    *Bot
	secret string
	logger *slog.Logger
}

// NewWebhookHandler constructs a handler. An empty secret disables the
// header check.
func NewWebhookHandler(bot *Bot, secret string, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{bot: bot, secret: secret, logger: logger.With("component", "webhook")}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var u Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	// Telegram redelivers on non-2xx, so delivery failures are only logged.
	if err := h.bot.HandleUpdate(r.Context(), u); err != nil {
		h.logger.Error("reply failed", "update_id", u.UpdateID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
