// Package router turns inbound chat commands into activity log transitions
// and formatted replies.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"example.com/attendance/internal/clock"
	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/message"
	"example.com/attendance/internal/observability"
	"example.com/attendance/internal/summary"
)

// DefaultUserName is shown when the transport supplies no display name.
const DefaultUserName = "用户"

const defaultAttempts = 3

// Event is an inbound command from one user.
type Event struct {
	UserID   int64
	UserName string
	Command  string
}

// Validate checks the fields required to route the event.
func (e Event) Validate() error {
	if e.UserID == 0 {
		return fmt.Errorf("%w: missing user id", domain.ErrMalformedEvent)
	}
	if strings.TrimSpace(e.Command) == "" {
		return fmt.Errorf("%w: missing command", domain.ErrMalformedEvent)
	}
	return nil
}

// DisplayName returns the user name or the default placeholder.
func (e Event) DisplayName() string {
	if name := strings.TrimSpace(e.UserName); name != "" {
		return name
	}
	return DefaultUserName
}

// Option configures optional behaviour for the Router.
type Option func(*Router)

// WithLogger overrides the logger used to report failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(r *Router) {
		r.time = clock.NewTimeSource(c)
	}
}

// WithAttempts bounds how often a read-modify-write cycle is re-run after a
// concurrent update.
func WithAttempts(n uint) Option {
	return func(r *Router) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// Router dispatches commands against the repository.
type Router struct {
	repo     domain.Repository
	time     clock.TimeSource
	logger   *slog.Logger
	locks    *keyedMutex
	attempts uint
}

// New constructs a Router backed by repo.
func New(repo domain.Repository, opts ...Option) *Router {
	r := &Router{
		repo:     repo,
		time:     clock.NewTimeSource(clock.Real()),
		logger:   slog.Default().With("component", "router"),
		locks:    newKeyedMutex(),
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize ensures today's log exists for the user and returns the welcome
// reply. An existing log is left untouched.
func (r *Router) Initialize(ctx context.Context, ev Event) (message.Message, error) {
	if ev.UserID == 0 {
		err := fmt.Errorf("%w: missing user id", domain.ErrMalformedEvent)
		r.fail("malformed", ev, err)
		return message.Message{}, err
	}
	date := r.time.Today()

	unlock := r.locks.Lock(lockKey(ev.UserID, date))
	defer unlock()

	if _, err := r.repo.LoadOrCreate(ctx, ev.UserID, date); err != nil {
		err = persistenceError(err)
		r.fail("persistence", ev, err)
		return message.Message{}, err
	}

	var b message.Builder
	b.Text("👋 ").Bold("欢迎，" + ev.DisplayName() + "！").Line()
	b.Text("你的独立考勤面板已就绪。").Line()
	b.Text("每人数据完全独立记录。")
	return b.Message(), nil
}

// Handle routes one command. Unrecognised commands yield an empty message and
// no error. Persistence failures abort the event without a reply.
func (r *Router) Handle(ctx context.Context, ev Event) (message.Message, error) {
	if err := ev.Validate(); err != nil {
		r.fail("malformed", ev, err)
		return message.Message{}, err
	}
	cmd, ok := ParseCommand(ev.Command)
	if !ok {
		r.logger.Debug("ignoring unrecognised command", "user_id", ev.UserID, "command", ev.Command)
		return message.Message{}, nil
	}

	started := time.Now()
	moment := r.time.Moment()
	date := moment.Format(clock.DateLayout)

	unlock := r.locks.Lock(lockKey(ev.UserID, date))
	defer unlock()

	var (
		reply message.Message
		err   error
	)
	if cmd == CommandSummary {
		reply, err = r.summarize(ctx, ev, date)
	} else {
		reply, err = r.transition(ctx, ev, cmd, moment)
	}
	if err != nil {
		kind := "persistence"
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			kind = "concurrent_update"
		}
		r.fail(kind, ev, err)
		return message.Message{}, err
	}

	observability.RecordCommand(string(cmd), time.Since(started))
	return reply, nil
}

func (r *Router) summarize(ctx context.Context, ev Event, date string) (message.Message, error) {
	log, err := r.repo.Get(ctx, ev.UserID, date)
	if err != nil {
		return message.Message{}, persistenceError(err)
	}
	return summary.Build(log, ev.DisplayName()), nil
}

func (r *Router) transition(ctx context.Context, ev Event, cmd Command, moment time.Time) (message.Message, error) {
	act := actions[cmd]
	date := moment.Format(clock.DateLayout)
	at := moment.Format(clock.TimeLayout)
	late := cmd == CommandStartWork && domain.IsLate(moment)

	var reply message.Message
	err := retry.Do(
		func() error {
			log, err := r.repo.LoadOrCreate(ctx, ev.UserID, date)
			if err != nil {
				return persistenceError(err)
			}
			reply = apply(log, act, ev.DisplayName(), at, late)
			if err := r.repo.Save(ctx, log); err != nil {
				return persistenceError(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(10*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrConcurrentUpdate)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("retrying activity log update", "attempt", n+1, "user_id", ev.UserID, "date", date, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return message.Message{}, err
	}

	if late {
		observability.RecordLateStart()
	}
	r.logger.Info("activity transition",
		"user_id", ev.UserID,
		"date", date,
		"command", string(cmd),
		"at", at,
		"late", late,
	)
	return reply, nil
}

// apply mutates log for the action and renders the reply.
func apply(log *domain.ActivityLog, act action, name, at string, late bool) message.Message {
	prev, closed := log.CloseOpen(at)

	var sessionSummary message.Message
	if act.endSession {
		sessionSummary = summary.Build(log, name)
		log.MarkSessionEnd(at)
	} else {
		log.OpenNew(act.opens, at)
	}

	var b message.Builder
	b.Text(act.icon + " ").Bold(act.title).Line()
	b.Text("👤 ").Bold(name).Line()
	b.Text("🕐 " + act.timeLabel + ": " + at)
	if late {
		b.Text("\n\n🔴 ").Bold("WARNING: YOU ARE LATE").Text(" 🔴\n")
		b.Text("⚠️ ").Bold("You are late, and you are fined.").Line()
		b.Text("⚠️ ").Bold("你迟到了，你将被罚款。")
	}
	if closed {
		d := prev.Category.Describe()
		b.Text("\n\n✅ " + act.prevHeader + "\n")
		b.Text(d.NameLocal + " / " + d.NameEnglish + ": " + domain.FormatDuration(prev.DurationMinutes))
	}
	if act.endSession {
		b.Text("\n\n").Append(sessionSummary)
	}
	return b.Message()
}

func (r *Router) fail(kind string, ev Event, err error) {
	observability.RecordFailure(kind)
	r.logger.Error("event aborted", "kind", kind, "user_id", ev.UserID, "command", ev.Command, "error", err)
}

// persistenceError tags storage failures. Conflicts keep their own identity.
func persistenceError(err error) error {
	if errors.Is(err, domain.ErrPersistenceUnavailable) ||
		errors.Is(err, domain.ErrConcurrentUpdate) ||
		errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistenceUnavailable, err)
}

func lockKey(userID int64, date string) string {
	return strconv.FormatInt(userID, 10) + "/" + date
}
