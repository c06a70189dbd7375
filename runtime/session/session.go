package session

import (
	"context"
	"errors"
	"fmt"
	"kaychat/codec"
	"kaychat/contract"
	"kaychat/domain"
	apperrors "kaychat/errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	DefaultInboxSize        = 256
	DefaultSubscriptionName = "session"
)

type options struct {
	inboxSize int
	name      string
}

type Option func(*options)

// WithInboxSize bounds the number of frames waiting for Run.
func WithInboxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.inboxSize = size
		}
	}
}

// WithSubscriptionName sets the name used on the relay.
func WithSubscriptionName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// Stats counts what happened to inbound frames and outbound submissions.
type Stats struct {
	Received   uint64
	Applied    uint64
	Dropped    uint64
	Ignored    uint64
	Sent       uint64
	SendFailed uint64
}

type counters struct {
	received, applied, dropped, ignored, sent, sendFailed atomic.Uint64
}

type submission struct {
	text  string
	reply chan error
}

// Session is the client side of the chat protocol.
//
// Every transition runs on the goroutine executing Run: inbound frames
// arrive through Consume, user intents through Submit. Readers only ever
// see immutable snapshots.
type Session struct {
	log       *slog.Logger
	identity  domain.Identity
	transport contract.Transport
	relay     contract.IRelay
	name      string

	inbox    chan string
	submits  chan submission
	updates  chan domain.Snapshot
	snapshot atomic.Pointer[domain.Snapshot]
	stopped  chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
	counters counters

	// Owned by the Run goroutine once New returns.
	state    domain.State
	presence []domain.PresenceEntry
	messages []domain.MessageRecord
}

// New subscribes the session to the relay, then sends the register frame.
// A failed register transmission is logged and the session still moves
// to Registering.
func New(log *slog.Logger, identity domain.Identity, transport contract.Transport, relay contract.IRelay, opts ...Option) (*Session, error) {
	if strings.TrimSpace(identity.DisplayName) == "" {
		return nil, apperrors.ErrEmptyDisplayName
	}
	o := options{inboxSize: DefaultInboxSize, name: DefaultSubscriptionName}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		log:       log.With("session", o.name, "user", identity.DisplayName),
		identity:  identity,
		transport: transport,
		relay:     relay,
		name:      o.name,
		inbox:     make(chan string, o.inboxSize),
		submits:   make(chan submission),
		updates:   make(chan domain.Snapshot, 1),
		stopped:   make(chan struct{}),
		state:     domain.StateConnecting,
	}
	s.publish()

	// Subscribe first: any reply provoked by the register frame must be seen.
	relay.Subscribe(s.name, s)

	if err := s.register(); err != nil {
		s.log.Warn("Register frame not sent", "error", err)
	} else {
		s.log.Debug("Register frame sent")
	}
	s.state = domain.StateRegistering
	s.publish()
	return s, nil
}

func (s *Session) register() error {
	frame, err := codec.Encode(codec.Register(s.identity.DisplayName))
	if err != nil {
		return err
	}
	return s.transport.Send(frame)
}

// Run executes transitions until the transport closes or ctx ends.
// On every exit, a panic included, the session moves to Closed,
// unsubscribes from the relay and closes the Updates channel.
// A session runs once: later calls return nil immediately.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("Session already ran, nothing to restart")
		return nil
	}
	defer func() {
		s.close()
		s.stop()
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Context done, closing session")
			return nil
		case <-s.transport.Done():
			s.drain()
			s.log.Info("Transport closed, session terminated")
			return nil
		case frame := <-s.inbox:
			s.apply(frame)
		case sub := <-s.submits:
			sub.reply <- s.send(sub.text)
		}
	}
}

// Consume implements contract.FrameSink for the relay.
func (s *Session) Consume(ctx context.Context, frame string) error {
	select {
	case <-s.stopped:
		return apperrors.ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- frame:
		return nil
	case <-s.stopped:
		return apperrors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit sends text as a chat message. It is accepted while registering
// or active, without waiting for any acknowledgement. A transmit failure
// is returned but leaves the session untouched.
func (s *Session) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.ErrEmptyMessage
	}
	reply := make(chan error, 1)
	select {
	case s.submits <- submission{text: text, reply: reply}:
	case <-s.stopped:
		return apperrors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.stopped:
		return apperrors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the state after the last accepted transition.
func (s *Session) Snapshot() domain.Snapshot {
	return *s.snapshot.Load()
}

// Updates notifies each accepted transition. Only the latest snapshot is
// kept for a slow reader. The channel is closed when Run returns.
func (s *Session) Updates() <-chan domain.Snapshot {
	return s.updates
}

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

func (s *Session) Stats() Stats {
	return Stats{
		Received:   s.counters.received.Load(),
		Applied:    s.counters.applied.Load(),
		Dropped:    s.counters.dropped.Load(),
		Ignored:    s.counters.ignored.Load(),
		Sent:       s.counters.sent.Load(),
		SendFailed: s.counters.sendFailed.Load(),
	}
}

// apply classifies one inbound frame. Malformed frames are dropped
// without touching the state; unknown kinds are ignored.
func (s *Session) apply(frame string) {
	s.counters.received.Add(1)

	envelope, err := codec.Decode(frame)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownKind) {
			s.counters.ignored.Add(1)
			s.log.Debug("Ignoring frame of unknown type", "error", err)
			return
		}
		s.counters.dropped.Add(1)
		s.log.Warn("Dropping malformed frame", "error", err)
		return
	}

	switch envelope.Kind {
	case codec.KindUsers:
		s.presence = domain.PresenceFromNames(envelope.Names)
		s.log.Debug("Presence replaced", "count", len(s.presence))
	case codec.KindMessage:
		payload, err := codec.DecodeChatPayload(envelope.Text)
		if err != nil {
			s.counters.dropped.Add(1)
			s.log.Warn("Dropping message with malformed payload", "error", err)
			return
		}
		s.messages = append(s.messages, domain.MessageRecord{Sender: payload.From, Body: payload.Message})
	default:
		s.counters.ignored.Add(1)
		s.log.Debug("Ignoring frame", "type", envelope.Kind.String())
		return
	}

	s.counters.applied.Add(1)
	if s.state == domain.StateRegistering {
		s.state = domain.StateActive
		s.log.Info("Registration confirmed by server")
	}
	s.publish()
}

func (s *Session) send(text string) error {
	if !s.state.CanSubmit() {
		if s.state == domain.StateClosed {
			return apperrors.ErrSessionClosed
		}
		return apperrors.ErrNotRegistered
	}
	frame, err := codec.Encode(codec.Message(text))
	if err != nil {
		return err
	}
	if err := s.transport.Send(frame); err != nil {
		s.counters.sendFailed.Add(1)
		s.log.Warn("Chat message not sent", "error", err)
		if errors.Is(err, apperrors.ErrTransmit) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrTransmit, err)
	}
	s.counters.sent.Add(1)
	return nil
}

// drain applies frames the relay queued before the transport went away.
func (s *Session) drain() {
	for {
		select {
		case frame := <-s.inbox:
			s.apply(frame)
		default:
			return
		}
	}
}

func (s *Session) close() {
	if s.state == domain.StateClosed {
		return
	}
	s.state = domain.StateClosed
	s.publish()
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		s.relay.Unsubscribe(s.name)
		close(s.stopped)
		close(s.updates)
	})
}

// publish stores a fresh snapshot and replaces any unread notification.
func (s *Session) publish() {
	snapshot := domain.NewSnapshot(s.identity, s.state, s.presence, s.messages)
	s.snapshot.Store(&snapshot)

	select {
	case s.updates <- snapshot:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snapshot:
	default:
	}
}
