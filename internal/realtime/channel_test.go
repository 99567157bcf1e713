package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seplag/discoteca/internal/domain"
)

type fakeSession struct {
	frames    chan Frame
	done      chan struct{}
	endOnce   sync.Once
	closeOnce sync.Once
	closed    chan struct{}
	err       error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		frames: make(chan Frame),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (s *fakeSession) Frames() <-chan Frame  { return s.frames }
func (s *fakeSession) Done() <-chan struct{} { return s.done }
func (s *fakeSession) Err() error            { return s.err }

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// drop simulates the server closing the connection
func (s *fakeSession) drop(err error) {
	s.endOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

type fakeDialer struct {
	mu       sync.Mutex
	dials    int
	failNext int
	sessions chan *fakeSession
	topics   []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{sessions: make(chan *fakeSession, 8)}
}

func (d *fakeDialer) Dial(ctx context.Context, topics []string) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.topics = topics
	if d.failNext > 0 {
		d.failNext--
		return nil, domain.ErrServerOffline
	}
	s := newFakeSession()
	d.sessions <- s
	return s, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func nextSession(t *testing.T, d *fakeDialer) *fakeSession {
	t.Helper()
	select {
	case s := <-d.sessions:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no session dialed")
		return nil
	}
}

func newChannel(d Dialer) *Channel {
	return NewChannel(d, Options{
		Topics:         []string{"/topic/albuns", "/topic/artistas"},
		ReconnectDelay: 10 * time.Millisecond,
	}, nil)
}

func TestChannelConnectPublishesNotifications(t *testing.T) {
	d := newFakeDialer()
	ch := newChannel(d)
	defer ch.Disconnect()

	got := make(chan domain.Notification, 4)
	cancel := ch.Notifications().Subscribe(func(n domain.Notification) { got <- n })
	defer cancel()

	ch.Connect(context.Background())
	sess := nextSession(t, d)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"/topic/albuns", "/topic/artistas"}, d.topics)

	// malformed frames are dropped without ending the session
	sess.frames <- Frame{Destination: "/topic/albuns", Body: []byte("garbage")}
	sess.frames <- Frame{Destination: "/topic/artistas", Body: []byte(`{"type":"ARTISTA_UPDATED","message":"Updated"}`)}

	select {
	case n := <-got:
		assert.Equal(t, "ARTISTA_UPDATED", n.Type)
		assert.Equal(t, "Updated", n.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not published")
	}
	assert.True(t, ch.Connected().Get())
}

func TestChannelConnectIsIdempotent(t *testing.T) {
	d := newFakeDialer()
	ch := newChannel(d)
	defer ch.Disconnect()

	ch.Connect(context.Background())
	ch.Connect(context.Background())
	nextSession(t, d)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)
	ch.Connect(context.Background())

	assert.Equal(t, 1, d.dialCount())
	assert.True(t, ch.Active())
}

func TestChannelReconnectsAfterServerClose(t *testing.T) {
	d := newFakeDialer()
	ch := newChannel(d)
	defer ch.Disconnect()

	var mu sync.Mutex
	var states []bool
	cancel := ch.Connected().Subscribe(func(v bool) {
		mu.Lock()
		states = append(states, v)
		mu.Unlock()
	})
	defer cancel()

	ch.Connect(context.Background())
	first := nextSession(t, d)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)

	first.drop(errors.New("server closed"))
	second := nextSession(t, d)
	require.NotSame(t, first, second)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)

	select {
	case <-first.closed:
	default:
		t.Fatal("dropped session was not closed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true, false, true}, states)
}

func TestChannelRetriesFailedDial(t *testing.T) {
	d := newFakeDialer()
	d.failNext = 2
	ch := newChannel(d)
	defer ch.Disconnect()

	ch.Connect(context.Background())
	nextSession(t, d)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, d.dialCount())
}

func TestChannelDisconnectStopsReconnecting(t *testing.T) {
	d := newFakeDialer()
	ch := newChannel(d)

	ch.Connect(context.Background())
	sess := nextSession(t, d)
	require.Eventually(t, func() bool { return ch.Connected().Get() }, time.Second, 5*time.Millisecond)

	ch.Disconnect()
	assert.False(t, ch.Connected().Get())
	assert.Equal(t, Disconnected, ch.State().Get())
	assert.False(t, ch.Active())
	<-sess.closed

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, d.dialCount())

	// a later Connect starts a fresh loop
	ch.Connect(context.Background())
	nextSession(t, d)
	ch.Disconnect()
	assert.Equal(t, 2, d.dialCount())
}

func TestChannelStopsWithParentContext(t *testing.T) {
	d := newFakeDialer()
	ch := newChannel(d)
	ctx, cancel := context.WithCancel(context.Background())

	ch.Connect(ctx)
	nextSession(t, d)
	cancel()

	require.Eventually(t, func() bool { return !ch.Active() }, time.Second, 5*time.Millisecond)
	assert.False(t, ch.Connected().Get())
}
