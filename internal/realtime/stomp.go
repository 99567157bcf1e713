package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"

	"github.com/seplag/discoteca/internal/domain"
)

var (
	errSessionClosed      = errors.New("session closed")
	errSubscriptionClosed = errors.New("subscription closed by broker")
)

// StompDialer connects to a STOMP broker over a WebSocket.
type StompDialer struct {
	URL        string
	Token      func() string // Bearer token sent on the upgrade and in CONNECT; may be nil
	Heartbeat  time.Duration
	HTTPClient *http.Client
}

// Dial upgrades the connection, performs the STOMP handshake and subscribes
// to every topic. A failure at any step leaves nothing open.
func (d *StompDialer) Dial(ctx context.Context, topics []string) (Session, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime url %q: %w", d.URL, err)
	}

	var token string
	if d.Token != nil {
		token = d.Token()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{
		HTTPClient:   d.HTTPClient,
		HTTPHeader:   header,
		Subprotocols: []string{"v12.stomp", "v11.stomp"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	nc := websocket.NetConn(connCtx, ws, websocket.MessageText)

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.Host(u.Hostname()),
		stomp.ConnOpt.HeartBeat(d.Heartbeat, d.Heartbeat),
	}
	if token != "" {
		opts = append(opts, stomp.ConnOpt.Header("Authorization", "Bearer "+token))
	}
	conn, err := stomp.Connect(nc, opts...)
	if err != nil {
		cancel()
		ws.CloseNow()
		return nil, fmt.Errorf("stomp handshake failed: %w", err)
	}

	s := &stompSession{
		conn:   conn,
		cancel: cancel,
		frames: make(chan Frame, 16),
		done:   make(chan struct{}),
	}
	for _, topic := range topics {
		sub, err := conn.Subscribe(topic, stomp.AckAuto)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		go s.pump(sub)
	}
	return s, nil
}

type stompSession struct {
	conn   *stomp.Conn
	cancel context.CancelFunc
	frames chan Frame
	done   chan struct{}

	endOnce   sync.Once
	closeOnce sync.Once
	err       error
}

func (s *stompSession) Frames() <-chan Frame  { return s.frames }
func (s *stompSession) Done() <-chan struct{} { return s.done }

func (s *stompSession) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *stompSession) pump(sub *stomp.Subscription) {
	for msg := range sub.C {
		if msg.Err != nil {
			s.end(msg.Err)
			return
		}
		select {
		case s.frames <- Frame{Destination: msg.Destination, Body: msg.Body}:
		case <-s.done:
			return
		}
	}
	s.end(errSubscriptionClosed)
}

func (s *stompSession) end(err error) {
	s.endOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Close sends DISCONNECT when the session is still healthy, otherwise drops
// the socket.
func (s *stompSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		healthy := s.Err() == nil
		s.end(errSessionClosed)
		if healthy {
			err = s.conn.Disconnect()
		} else {
			s.conn.MustDisconnect()
		}
		s.cancel()
	})
	return err
}
