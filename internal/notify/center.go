package notify

import (
	"log/slog"
	"time"

	"github.com/seplag/discoteca/internal/observable"
)

// DefaultDuration is how long a toast stays visible
const DefaultDuration = 5 * time.Second

// Level of a toast
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient message for the user
type Toast struct {
	Level    Level
	Message  string
	At       time.Time
	Duration time.Duration
}

// Expired reports whether the toast should no longer be shown at now
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.At) >= t.Duration
}

// Center publishes toasts to whoever renders them and logs each one.
// It satisfies domain.Notifier.
type Center struct {
	logger *slog.Logger
	toasts *observable.Stream[Toast]
	now    func() time.Time
}

func NewCenter(logger *slog.Logger) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{
		logger: logger,
		toasts: observable.NewStream[Toast](),
		now:    time.Now,
	}
}

func (c *Center) Toasts() *observable.Stream[Toast] { return c.toasts }

func (c *Center) Info(msg string)  { c.show(LevelInfo, msg) }
func (c *Center) Warn(msg string)  { c.show(LevelWarn, msg) }
func (c *Center) Error(msg string) { c.show(LevelError, msg) }

func (c *Center) show(level Level, msg string) {
	if msg == "" {
		return
	}
	switch level {
	case LevelError:
		c.logger.Error("toast", "message", msg)
	case LevelWarn:
		c.logger.Warn("toast", "message", msg)
	default:
		c.logger.Info("toast", "message", msg)
	}
	c.toasts.Publish(Toast{Level: level, Message: msg, At: c.now(), Duration: DefaultDuration})
}
