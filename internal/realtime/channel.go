package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
)

// DefaultReconnectDelay is the wait between a lost connection and the next attempt
const DefaultReconnectDelay = 5 * time.Second

// State of the realtime connection
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Frame is one message received on a subscribed topic
type Frame struct {
	Destination string
	Body        []byte
}

// Session is one live broker connection with its subscriptions in place.
type Session interface {
	// Frames delivers inbound messages while the session is alive
	Frames() <-chan Frame

	// Done is closed when the session ends on its own
	Done() <-chan struct{}

	// Err reports why the session ended
	Err() error

	Close() error
}

// Dialer opens a session subscribed to the given topics
type Dialer interface {
	Dial(ctx context.Context, topics []string) (Session, error)
}

// Options for a Channel
type Options struct {
	Topics         []string
	ReconnectDelay time.Duration
}

// Channel keeps one broker connection open while active, reconnecting after
// failures, and publishes every decoded notification.
type Channel struct {
	dialer Dialer
	opts   Options
	logger *slog.Logger

	state         *observable.Value[State]
	connected     *observable.Value[bool]
	notifications *observable.Stream[domain.Notification]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannel creates an inactive channel
func NewChannel(dialer Dialer, opts Options, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &Channel{
		dialer:        dialer,
		opts:          opts,
		logger:        logger,
		state:         observable.NewValue(Disconnected),
		connected:     observable.NewValue(false),
		notifications: observable.NewStream[domain.Notification](),
	}
}

func (c *Channel) State() *observable.Value[State]                        { return c.state }
func (c *Channel) Connected() *observable.Value[bool]                     { return c.connected }
func (c *Channel) Notifications() *observable.Stream[domain.Notification] { return c.notifications }

// Active reports whether the connection loop is running
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Connect starts the connection loop. It does nothing when already active.
// The loop stops on Disconnect or when ctx is done.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go c.run(ctx, done)
}

// Disconnect stops the loop, closes the session and waits for both.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		c.logger.Info("realtime disconnected")
	}
	c.setState(Disconnected)
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.done == done {
			c.cancel, c.done = nil, nil
		}
		c.mu.Unlock()
		close(done)
	}()

	for {
		c.setState(Connecting)
		sess, err := c.dialer.Dial(ctx, c.opts.Topics)
		if err != nil {
			c.setState(Disconnected)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("realtime connect failed", "error", err, "retryIn", c.opts.ReconnectDelay)
		} else {
			c.setState(Connected)
			c.logger.Info("realtime connected", "topics", c.opts.Topics)
			err := c.consume(ctx, sess)
			if cerr := sess.Close(); cerr != nil {
				c.logger.Debug("realtime session close", "error", cerr)
			}
			c.setState(Disconnected)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("realtime connection lost", "error", err, "retryIn", c.opts.ReconnectDelay)
		}

		t := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// consume forwards frames until the session ends or ctx is done
func (c *Channel) consume(ctx context.Context, sess Session) error {
	frames := sess.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sess.Done():
			return sess.Err()
		case f, ok := <-frames:
			if !ok {
				return sess.Err()
			}
			c.handle(f)
		}
	}
}

func (c *Channel) handle(f Frame) {
	n, err := DecodeEnvelope(f.Destination, f.Body)
	if err != nil {
		c.logger.Warn("dropping realtime message", "destination", f.Destination, "error", err)
		return
	}
	c.logger.Debug("realtime notification", "type", n.Type, "destination", f.Destination)
	c.notifications.Publish(n)
}

func (c *Channel) setState(s State) {
	if c.state.Get() != s {
		c.state.Set(s)
	}
	if up := s == Connected; c.connected.Get() != up {
		c.connected.Set(up)
	}
}
