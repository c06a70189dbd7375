package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Codec layers
	ErrEncode      = fmt.Errorf("envelope encoding failed")
	ErrDecode      = fmt.Errorf("envelope decoding failed")
	ErrUnknownKind = fmt.Errorf("unknown message type")
	ErrChatPayload = fmt.Errorf("chat payload decoding failed")

	// Transport
	ErrTransmit        = fmt.Errorf("transmit failed")
	ErrTransportClosed = fmt.Errorf("transport closed")

	// Session
	ErrSessionClosed    = fmt.Errorf("session closed")
	ErrNotRegistered    = fmt.Errorf("session not registered")
	ErrEmptyMessage     = fmt.Errorf("message is empty")
	ErrEmptyDisplayName = fmt.Errorf("display name is empty")
)
