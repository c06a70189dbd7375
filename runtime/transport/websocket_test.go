package transport

import (
	"context"
	"kaychat/errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type chanPublisher struct {
	frames chan string
}

func (p chanPublisher) Publish(_ context.Context, frame string) error {
	p.frames <- frame
	return nil
}

// startServer runs handler on every accepted websocket and returns its ws:// url.
func startServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_Send_And_Receive(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	received := make(chan string, 1)

	// Given a server that records the first frame and pushes two back
	url := startServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("one"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("two"))
		_, _, _ = conn.ReadMessage()
	})
	publisher := chanPublisher{frames: make(chan string, 2)}

	ws, err := Dial(context.Background(), log, url, publisher)
	req.NoError(err)

	// When a frame is sent before the pumps start
	req.NoError(ws.Send("hello"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ws.Run(ctx) }()

	// Then it is queued and delivered
	select {
	case frame := <-received:
		req.Equal("hello", frame)
	case <-time.After(2 * time.Second):
		req.Fail("server never received the frame")
	}

	// And inbound frames are published in arrival order
	for _, want := range []string{"one", "two"} {
		select {
		case frame := <-publisher.frames:
			req.Equal(want, frame)
		case <-time.After(2 * time.Second):
			req.Fail("frame not published", want)
		}
	}
	req.NoError(ws.Close())
}

func TestWebSocket_Peer_Close_Ends_Run(t *testing.T) {
	req := require.New(t)
	url := startServer(t, func(conn *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
	})
	ws, err := Dial(context.Background(), slog.Default(), url, chanPublisher{frames: make(chan string, 1)})
	req.NoError(err)

	runErr := make(chan error, 1)
	go func() { runErr <- ws.Run(context.Background()) }()

	select {
	case <-ws.Done():
	case <-time.After(2 * time.Second):
		req.Fail("transport did not notice the peer closure")
	}
	req.NoError(<-runErr)
	req.NoError(ws.Err())
	req.ErrorIs(ws.Send("late"), errors.ErrTransportClosed)
}

func TestWebSocket_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	url := startServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	ws, err := Dial(context.Background(), slog.Default(), url, chanPublisher{frames: make(chan string, 1)})
	req.NoError(err)
	go func() { _ = ws.Run(context.Background()) }()

	_ = ws.Close()
	_ = ws.Close()

	select {
	case <-ws.Done():
	case <-time.After(2 * time.Second):
		req.Fail("transport not closed")
	}
	req.ErrorIs(ws.Send("after close"), errors.ErrTransportClosed)
}

func TestWebSocket_Close_Before_Run(t *testing.T) {
	req := require.New(t)
	url := startServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})
	ws, err := Dial(context.Background(), slog.Default(), url, chanPublisher{frames: make(chan string, 1)})
	req.NoError(err)

	_ = ws.Close()

	// Then Done is closed without any pump running
	select {
	case <-ws.Done():
	case <-time.After(time.Second):
		req.Fail("done not closed")
	}
	req.NoError(ws.Run(context.Background()))
}

func TestWebSocket_Full_Queue_Is_A_Transmit_Failure(t *testing.T) {
	req := require.New(t)
	url := startServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})
	ws, err := Dial(context.Background(), slog.Default(), url,
		chanPublisher{frames: make(chan string, 1)}, WithOutboundBuffer(1))
	req.NoError(err)
	defer ws.Close()

	// Given no writer drains the queue
	req.NoError(ws.Send("first"))

	// When the queue is full
	err = ws.Send("second")

	// Then the frame is refused without blocking
	req.ErrorIs(err, errors.ErrTransmit)
}

func TestWebSocket_Context_Cancel_Stops_Run(t *testing.T) {
	req := require.New(t)
	url := startServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	ws, err := Dial(context.Background(), slog.Default(), url, chanPublisher{frames: make(chan string, 1)})
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- ws.Run(ctx) }()
	cancel()

	select {
	case err := <-runErr:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("Run did not stop on cancel")
	}
	<-ws.Done()
}

func TestDial_Unreachable_Server(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, slog.Default(), "ws://127.0.0.1:1", chanPublisher{}, WithHandshakeTimeout(500*time.Millisecond))

	req.Error(err)
}
