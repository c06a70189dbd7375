package transport

import (
	"context"
	"errors"
	"fmt"
	"kaychat/contract"
	apperrors "kaychat/errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultOutboundBuffer   = 64
	DefaultWriteTimeout     = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadLimit        = 1 << 20
	closeGracePeriod        = time.Second
)

type options struct {
	outboundBuffer   int
	writeTimeout     time.Duration
	handshakeTimeout time.Duration
	readLimit        int64
}

type Option func(*options)

func WithOutboundBuffer(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.outboundBuffer = size
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

func WithReadLimit(limit int64) Option {
	return func(o *options) {
		if limit > 0 {
			o.readLimit = limit
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		outboundBuffer:   DefaultOutboundBuffer,
		writeTimeout:     DefaultWriteTimeout,
		handshakeTimeout: DefaultHandshakeTimeout,
		readLimit:        DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WebSocket is a client connection to the chat server.
//
// Send only enqueues: a single writer goroutine drains the outbound queue,
// and a single reader publishes every inbound text frame. Both live in Run.
type WebSocket struct {
	log       *slog.Logger
	conn      *websocket.Conn
	publisher contract.FramePublisher
	outbound  chan string
	opts      options

	running   atomic.Bool
	closing   atomic.Bool
	closeOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}

	mu       sync.Mutex
	err      error
	writeErr error
}

// Dial opens the websocket handshake against url.
func Dial(ctx context.Context, log *slog.Logger, url string, publisher contract.FramePublisher, opts ...Option) (*WebSocket, error) {
	o := newOptions(opts)
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	log.Info("Connected to chat server", "url", url)
	return newWebSocket(log, conn, publisher, o), nil
}

func newWebSocket(log *slog.Logger, conn *websocket.Conn, publisher contract.FramePublisher, o options) *WebSocket {
	conn.SetReadLimit(o.readLimit)
	return &WebSocket{
		log:       log,
		conn:      conn,
		publisher: publisher,
		outbound:  make(chan string, o.outboundBuffer),
		opts:      o,
		done:      make(chan struct{}),
	}
}

// Send queues text for the writer. It never blocks: a full queue is a
// transmit failure and the frame is dropped.
func (w *WebSocket) Send(text string) error {
	if w.closing.Load() {
		return apperrors.ErrTransportClosed
	}
	select {
	case <-w.done:
		return apperrors.ErrTransportClosed
	case w.outbound <- text:
		return nil
	default:
		return fmt.Errorf("%w: outbound queue full (%d)", apperrors.ErrTransmit, cap(w.outbound))
	}
}

// Done is closed once the connection is gone and Run has returned.
func (w *WebSocket) Done() <-chan struct{} {
	return w.done
}

// Err reports why the connection ended, nil for a normal closure.
func (w *WebSocket) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close sends a normal closure frame and tears the connection down.
// Frames still queued are dropped.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.closing.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		err = w.conn.Close()
		if !w.running.Load() {
			w.finish(nil)
		}
	})
	return err
}

// Run pumps frames in both directions until the peer closes, Close is
// called or ctx ends.
func (w *WebSocket) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Debug("Transport already running")
		return nil
	}
	select {
	case <-w.done:
		return nil
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.writeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		_ = w.Close()
	}()

	err := w.readLoop(ctx)
	cancel()
	wg.Wait()

	w.finish(err)
	if err = w.Err(); err != nil {
		w.log.Warn("Connection lost", "error", err)
	} else {
		w.log.Info("Connection closed")
	}
	return nil
}

func (w *WebSocket) readLoop(ctx context.Context) error {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if w.closing.Load() || isNormalClosure(err) {
				return nil
			}
			return err
		}
		if messageType != websocket.TextMessage {
			w.log.Debug("Ignoring non-text frame", "type", messageType)
			continue
		}
		if err := w.publisher.Publish(ctx, string(data)); err != nil {
			w.log.Warn("Frame publication failed", "error", err)
		}
	}
}

func (w *WebSocket) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-w.outbound:
			_ = w.conn.SetWriteDeadline(time.Now().Add(w.opts.writeTimeout))
			if err := w.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				w.log.Warn("Frame write failed", "error", err)
				w.mu.Lock()
				w.writeErr = err
				w.mu.Unlock()
				_ = w.conn.Close()
				return
			}
		}
	}
}

func (w *WebSocket) finish(err error) {
	w.doneOnce.Do(func() {
		w.mu.Lock()
		if err == nil {
			err = w.writeErr
		}
		w.err = err
		w.mu.Unlock()
		close(w.done)
	})
}

func isNormalClosure(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}
