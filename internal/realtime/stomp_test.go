package realtime

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seplag/discoteca/internal/domain"
)

// pipeListener hands connections accepted elsewhere to the STOMP broker
type pipeListener struct {
	conns  chan net.Conn
	closed chan struct{}
	once   sync.Once
}

func newPipeListener() *pipeListener {
	return &pipeListener{conns: make(chan net.Conn), closed: make(chan struct{})}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *pipeListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *pipeListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

// startBroker runs a STOMP broker behind a WebSocket endpoint and returns its
// ws:// URL, the listener feeding the broker, and the Authorization header
// seen on the upgrade.
func startBroker(t *testing.T) (string, *pipeListener, func() string) {
	t.Helper()
	l := newPipeListener()
	go (&server.Server{HeartBeat: time.Minute}).Serve(l)

	var mu sync.Mutex
	var auth string
	stop := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"v12.stomp"}})
		if err != nil {
			return
		}
		select {
		case l.conns <- websocket.NetConn(context.Background(), ws, websocket.MessageText):
		case <-stop:
			return
		}
		<-stop
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		close(stop)
		l.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/albuns", l, func() string {
		mu.Lock()
		defer mu.Unlock()
		return auth
	}
}

// publisher connects straight to the broker
func publisher(t *testing.T, l *pipeListener) *stomp.Conn {
	t.Helper()
	client, srv := net.Pipe()
	go func() { l.conns <- srv }()
	conn, err := stomp.Connect(client)
	require.NoError(t, err)
	t.Cleanup(func() { conn.MustDisconnect() })
	return conn
}

func TestStompDialerDeliversTopicMessages(t *testing.T) {
	url, l, seenAuth := startBroker(t)
	d := &StompDialer{URL: url, Token: func() string { return "tok-1" }}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := d.Dial(ctx, []string{"/topic/albuns"})
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, "Bearer tok-1", seenAuth())

	pub := publisher(t, l)
	body := []byte(`{"id":4,"titulo":"Acabou Chorare"}`)

	// the subscription is registered asynchronously, so publish until it lands
	var got Frame
	require.Eventually(t, func() bool {
		if err := pub.Send("/topic/albuns", "application/json", body); err != nil {
			return false
		}
		select {
		case got = <-sess.Frames():
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, "/topic/albuns", got.Destination)
	n, err := DecodeEnvelope(got.Destination, got.Body)
	require.NoError(t, err)
	assert.Equal(t, "ALBUM_CREATED", n.Type)
	assert.Equal(t, "New album: Acabou Chorare", n.Message)
}

func TestStompDialerUnreachable(t *testing.T) {
	d := &StompDialer{URL: "ws://127.0.0.1:1/ws/albuns"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := d.Dial(ctx, []string{"/topic/albuns"})
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestStompDialerInvalidURL(t *testing.T) {
	d := &StompDialer{URL: "://bad"}
	_, err := d.Dial(context.Background(), nil)
	assert.Error(t, err)
}
