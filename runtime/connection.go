// Package runtime wires one chat connection: transport, relay, session
// and optional relay consumers, all run under a supervisor.
// It orchestrates the client without containing protocol rules.
package runtime

import (
	"context"
	"fmt"
	"kaychat/domain"
	"kaychat/repositories"
	"kaychat/runtime/relay"
	"kaychat/runtime/session"
	"kaychat/runtime/transport"
	"kaychat/runtime/workers"
	"kaychat/sink"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const transcriptSubscription = "transcript"

type ConnectionConfig struct {
	URL              string
	Identity         domain.Identity
	OutboundBuffer   int
	InboxSize        int
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	RestartInterval  time.Duration
	// StatsInterval enables periodic session counters in the log when > 0.
	StatsInterval time.Duration
	// Transcript is optional; when set every chat line is recorded.
	Transcript repositories.ITranscriptRepository
}

type Connection struct {
	ID        string
	Relay     *relay.Relay
	Transport *transport.WebSocket
	Session   *session.Session
	sup       *workers.Supervisor
}

// Connect dials the server and builds the session on top of it. The
// register frame is queued immediately; nothing runs until Run.
func Connect(ctx context.Context, log *slog.Logger, cfg ConnectionConfig) (*Connection, error) {
	id := uuid.NewString()
	log = log.With("connection", id)
	r := relay.New(log)

	if cfg.Transcript != nil {
		r.Subscribe(transcriptSubscription, sink.NewTranscriptSink(cfg.Transcript, log, id))
	}

	ws, err := transport.Dial(ctx, log, cfg.URL, r,
		transport.WithOutboundBuffer(cfg.OutboundBuffer),
		transport.WithWriteTimeout(cfg.WriteTimeout),
		transport.WithHandshakeTimeout(cfg.HandshakeTimeout),
	)
	if err != nil {
		return nil, err
	}

	s, err := session.New(log, cfg.Identity, ws, r, session.WithInboxSize(cfg.InboxSize))
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("session: %w", err)
	}

	sup := workers.NewSupervisor(log, cfg.RestartInterval)
	sup.Add(ws, s)
	if cfg.StatsInterval > 0 {
		sup.Add(workers.NewStatsReporter(log, s, cfg.StatsInterval))
	}
	return &Connection{ID: id, Relay: r, Transport: ws, Session: s, sup: sup}, nil
}

// Run blocks until the connection is closed and the session terminated.
// Session and transport run once; a session that stops for any reason,
// a crash included, takes the transport down with it.
func (c *Connection) Run(ctx context.Context) {
	go func() {
		select {
		case <-c.Session.Done():
			_ = c.Transport.Close()
		case <-c.Transport.Done():
		}
	}()
	c.sup.Run(ctx)
}

// Close drops the connection; Run returns once the session has stopped.
func (c *Connection) Close() error {
	return c.Transport.Close()
}
