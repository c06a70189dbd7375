//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport is one physical duplex connection to the chat server.
// Send is fire-and-forget: it never waits for the server.
type Transport interface {
	Send(text string) error
	Done() <-chan struct{}
	Close() error
}

// FrameSink consumes raw inbound frames in arrival order.
type FrameSink interface {
	Consume(ctx context.Context, frame string) error
}

// FramePublisher receives every raw frame read from the transport.
type FramePublisher interface {
	Publish(ctx context.Context, frame string) error
}

type IRelay interface {
	FramePublisher
	Subscribe(name string, sink FrameSink)
	Unsubscribe(name string)
}
