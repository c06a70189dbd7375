// Package codec owns the wire representation of the chat protocol.
// No other package may assume wire field names or discriminant values.
package codec

import "slices"

// Kind selects which payload field of an Envelope is meaningful.
type Kind int

const (
	KindRegister Kind = iota + 1
	KindUsers
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindUsers:
		return "users"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Envelope is the outer frame exchanged with the server.
//
//	KindRegister carries Name
//	KindUsers    carries Names (ordered, may be empty)
//	KindMessage  carries Text (outbound body, or an encoded ChatPayload inbound)
type Envelope struct {
	Kind  Kind
	Name  string
	Names []string
	Text  string
}

// Equal compares two envelopes field by field. A nil and an empty name
// list are the same list: the wire cannot tell them apart.
func (e Envelope) Equal(other Envelope) bool {
	return e.Kind == other.Kind &&
		e.Name == other.Name &&
		e.Text == other.Text &&
		slices.Equal(e.Names, other.Names)
}

func Register(displayName string) Envelope {
	return Envelope{Kind: KindRegister, Name: displayName}
}

func Users(names []string) Envelope {
	if names == nil {
		names = []string{}
	}
	return Envelope{Kind: KindUsers, Names: names}
}

func Message(text string) Envelope {
	return Envelope{Kind: KindMessage, Text: text}
}

// ChatPayload is the nested record carried by an inbound message frame.
type ChatPayload struct {
	From    string
	Message string
}
