package relay

import (
	"context"
	"errors"
	"fmt"
	"kaychat/contract"
	"log/slog"
	"sync"
)

type subscriber struct {
	name string
	sink contract.FrameSink
}

// Relay broadcasts raw inbound frames to in-process consumers.
//
// Publish delivers synchronously to every subscriber, in subscription
// order, so a single publisher gets arrival-order delivery. Frames are
// never replayed: a consumer only sees frames published after it
// subscribed.
//
// Relay is safe for concurrent use by multiple goroutines.
type Relay struct {
	mu          sync.RWMutex
	log         *slog.Logger
	subscribers []subscriber
}

func New(log *slog.Logger) *Relay {
	return &Relay{log: log}
}

// Subscribe registers sink under name. Subscribing an existing name
// replaces its sink in place.
func (r *Relay) Subscribe(name string, sink contract.FrameSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subscribers {
		if r.subscribers[i].name == name {
			r.subscribers[i].sink = sink
			return
		}
	}
	r.subscribers = append(r.subscribers, subscriber{name: name, sink: sink})
	r.log.Debug("Frame consumer subscribed", "name", name)
}

func (r *Relay) Unsubscribe(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subscribers {
		if r.subscribers[i].name == name {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			r.log.Debug("Frame consumer unsubscribed", "name", name)
			return
		}
	}
}

func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

// Publish hands frame to every subscriber. A failing sink does not stop
// delivery to the others; all failures are joined in the returned error.
func (r *Relay) Publish(ctx context.Context, frame string) error {
	r.mu.RLock()
	current := make([]subscriber, len(r.subscribers))
	copy(current, r.subscribers)
	r.mu.RUnlock()

	var errs []error
	for _, s := range current {
		if err := s.sink.Consume(ctx, frame); err != nil {
			r.log.Warn("Frame consumer failed", "name", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
