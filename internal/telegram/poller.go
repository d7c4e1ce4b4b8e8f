package telegram

import (
	"context"
	"log/slog"
	"time"
)

// UpdateSource yields updates after offset, blocking up to timeout.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller runs the long-polling loop. Updates are handled one at a time in
// arrival order.
type Poller struct {
	source  UpdateSource
	bot     *Bot
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

// NewPoller constructs a Poller.
func NewPoller(source UpdateSource, bot *Bot, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:  source,
		bot:     bot,
		timeout: timeout,
		backoff: 3 * time.Second,
		logger:  logger.With("component", "poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("get updates failed", "offset", offset, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, u := range updates {
			if err := p.bot.HandleUpdate(ctx, u); err != nil {
				p.logger.Error("reply failed", "update_id", u.UpdateID, "error", err)
			}
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
		}
	}
}
