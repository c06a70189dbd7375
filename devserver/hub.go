// Package devserver is a minimal chat hub speaking the client wire
// protocol. It exists for local runs and integration tests.
package devserver

import (
	"context"
	"fmt"
	"kaychat/codec"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 32
	writeWait     = 5 * time.Second
)

type client struct {
	name   string
	socket *websocket.Conn
	send   chan string
}

type inbound struct {
	client *client
	frame  string
}

// Hub tracks connected clients and broadcasts presence and chat lines.
// All membership changes go through Run.
type Hub struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	clients    map[*client]struct{}
	order      []*client
	register   chan *client
	unregister chan *client
	inbound    chan inbound
	done       chan struct{}

	mu      sync.Mutex
	running bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		inbound:    make(chan inbound, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return fmt.Errorf("hub already running")
	}
	h.running = true
	h.mu.Unlock()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.order = append(h.order, c)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.broadcastUsers()
			}
		case in := <-h.inbound:
			h.handle(in)
		}
	}
}

func (h *Hub) handle(in inbound) {
	if _, ok := h.clients[in.client]; !ok {
		return
	}
	envelope, err := codec.Decode(in.frame)
	if err != nil {
		h.log.Warn("Dropping client frame", "error", err)
		return
	}
	switch envelope.Kind {
	case codec.KindRegister:
		in.client.name = envelope.Name
		h.log.Info("Client registered", "name", envelope.Name)
		h.broadcastUsers()
	case codec.KindMessage:
		if in.client.name == "" {
			h.log.Warn("Message from unregistered client dropped")
			return
		}
		data, err := codec.EncodeChatPayload(codec.ChatPayload{From: in.client.name, Message: envelope.Text})
		if err != nil {
			h.log.Warn("Chat payload encoding failed", "error", err)
			return
		}
		h.broadcast(codec.Message(data))
	default:
		h.log.Debug("Ignoring client frame", "type", envelope.Kind.String())
	}
}

func (h *Hub) broadcastUsers() {
	names := []string{}
	for _, c := range h.order {
		if c.name != "" {
			names = append(names, c.name)
		}
	}
	h.broadcast(codec.Users(names))
}

func (h *Hub) broadcast(envelope codec.Envelope) {
	frame, err := codec.Encode(envelope)
	if err != nil {
		h.log.Warn("Broadcast encoding failed", "error", err)
		return
	}
	var slow []*client
	for _, c := range h.order {
		if c.name == "" {
			continue
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	if len(slow) == 0 {
		return
	}
	for _, c := range slow {
		h.log.Warn("Client too slow, disconnecting", "name", c.name)
		h.drop(c)
	}
	// Remaining clients must learn who left.
	h.broadcastUsers()
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for i, o := range h.order {
		if o == c {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	close(c.send)
}

// ServeHTTP upgrades the request and pumps the connection until it ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "error", err)
		return
	}
	c := &client{socket: socket, send: make(chan string, sendQueueSize)}

	select {
	case h.register <- c:
	case <-h.done:
		_ = socket.Close()
		return
	case <-r.Context().Done():
		_ = socket.Close()
		return
	}

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		case <-ctx.Done():
		}
		_ = c.socket.Close()
	}()
	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		select {
		case h.inbound <- inbound{client: c, frame: string(data)}:
		case <-h.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for frame := range c.send {
		_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.socket.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			_ = c.socket.Close()
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.socket.Close()
}
