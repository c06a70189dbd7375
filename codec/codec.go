package codec

import (
	"encoding/json"
	"fmt"
	"kaychat/errors"

	"github.com/samber/lo"
)

const (
	wireRegister = "register"
	wireUsers    = "users"
	wireMessage  = "message"
)

type wireEnvelope struct {
	MessageType *string   `json:"messageType"`
	DataArray   *[]string `json:"dataArray,omitempty"`
	Data        *string   `json:"data,omitempty"`
}

type wireChatPayload struct {
	From    *string `json:"from"`
	Message *string `json:"message"`
}

// Encode serializes an envelope. It only fails when the envelope breaks
// the payload rules of its kind.
func Encode(e Envelope) (string, error) {
	var w wireEnvelope
	switch e.Kind {
	case KindRegister:
		if e.Names != nil || e.Text != "" {
			return "", fmt.Errorf("%w: register carries a name only", errors.ErrEncode)
		}
		w = wireEnvelope{MessageType: lo.ToPtr(wireRegister), Data: lo.ToPtr(e.Name)}
	case KindUsers:
		if e.Name != "" || e.Text != "" {
			return "", fmt.Errorf("%w: users carries a name list only", errors.ErrEncode)
		}
		names := e.Names
		if names == nil {
			names = []string{}
		}
		w = wireEnvelope{MessageType: lo.ToPtr(wireUsers), DataArray: &names}
	case KindMessage:
		if e.Names != nil || e.Name != "" {
			return "", fmt.Errorf("%w: message carries text only", errors.ErrEncode)
		}
		w = wireEnvelope{MessageType: lo.ToPtr(wireMessage), Data: lo.ToPtr(e.Text)}
	default:
		return "", fmt.Errorf("%w: kind %d", errors.ErrEncode, e.Kind)
	}
	bytes, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrEncode, err)
	}
	return string(bytes), nil
}

// Decode parses the outer frame. The kind is taken from the discriminant,
// never from which payload field happens to be present.
// An unrecognized discriminant yields an error matching both
// errors.ErrDecode and errors.ErrUnknownKind.
func Decode(text string) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrDecode, err)
	}
	if w.MessageType == nil {
		return Envelope{}, fmt.Errorf("%w: missing messageType", errors.ErrDecode)
	}

	switch *w.MessageType {
	case wireRegister:
		if w.Data == nil || w.DataArray != nil {
			return Envelope{}, mismatch(*w.MessageType)
		}
		return Register(*w.Data), nil
	case wireUsers:
		if w.DataArray == nil || w.Data != nil {
			return Envelope{}, mismatch(*w.MessageType)
		}
		return Users(*w.DataArray), nil
	case wireMessage:
		if w.Data == nil || w.DataArray != nil {
			return Envelope{}, mismatch(*w.MessageType)
		}
		return Message(*w.Data), nil
	default:
		return Envelope{}, fmt.Errorf("%w: %w: %q", errors.ErrDecode, errors.ErrUnknownKind, *w.MessageType)
	}
}

// EncodeChatPayload builds the data field of an inbound message frame.
func EncodeChatPayload(p ChatPayload) (string, error) {
	bytes, err := json.Marshal(wireChatPayload{From: lo.ToPtr(p.From), Message: lo.ToPtr(p.Message)})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrEncode, err)
	}
	return string(bytes), nil
}

// DecodeChatPayload is the second decode layer, run only once the outer
// envelope is known to be a message. Its failures match errors.ErrChatPayload.
func DecodeChatPayload(text string) (ChatPayload, error) {
	var w wireChatPayload
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return ChatPayload{}, fmt.Errorf("%w: %v", errors.ErrChatPayload, err)
	}
	if w.From == nil || w.Message == nil {
		return ChatPayload{}, fmt.Errorf("%w: from and message are required", errors.ErrChatPayload)
	}
	return ChatPayload{From: *w.From, Message: *w.Message}, nil
}

func mismatch(messageType string) error {
	return fmt.Errorf("%w: payload does not match messageType %q", errors.ErrDecode, messageType)
}
