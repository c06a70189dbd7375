package codec

import (
	"kaychat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_Wire_Format(t *testing.T) {
	req := require.New(t)

	register, err := Encode(Register("alice"))
	req.NoError(err)
	req.JSONEq(`{"messageType":"register","data":"alice"}`, register)

	users, err := Encode(Users([]string{"alice", "bob"}))
	req.NoError(err)
	req.JSONEq(`{"messageType":"users","dataArray":["alice","bob"]}`, users)

	message, err := Encode(Message("hello"))
	req.NoError(err)
	req.Equal(`{"messageType":"message","data":"hello"}`, message)
}

func TestEncode_Empty_Users_Keeps_DataArray(t *testing.T) {
	req := require.New(t)

	users, err := Encode(Envelope{Kind: KindUsers})
	req.NoError(err)
	req.JSONEq(`{"messageType":"users","dataArray":[]}`, users)
}

func TestEncode_Rejects_Broken_Payload(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name     string
		envelope Envelope
	}{
		{"register with names", Envelope{Kind: KindRegister, Name: "alice", Names: []string{"bob"}}},
		{"users with text", Envelope{Kind: KindUsers, Names: []string{"bob"}, Text: "hi"}},
		{"message with names", Envelope{Kind: KindMessage, Text: "hi", Names: []string{}}},
		{"message with name", Envelope{Kind: KindMessage, Text: "hi", Name: "alice"}},
		{"zero kind", Envelope{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.envelope)
			req.ErrorIs(err, errors.ErrEncode, "test=%s", tt.name)
		})
	}
}

func TestDecode_Encode_Round_Trip(t *testing.T) {
	req := require.New(t)

	envelopes := []Envelope{
		Register("alice"),
		Register(""),
		Users([]string{"alice", "bob", "carol"}),
		Users([]string{}),
		Message("hello"),
		Message(`{"from":"bob","message":"hi"}`),
		Message("émoji 👋 and \"quotes\""),
		{Kind: KindUsers},
		{Kind: KindUsers, Names: []string{"alice"}},
	}
	for _, e := range envelopes {
		text, err := Encode(e)
		req.NoError(err)
		decoded, err := Decode(text)
		req.NoError(err)
		req.True(e.Equal(decoded), "sent=%+v decoded=%+v wire=%s", e, decoded, text)
	}
}

func TestEnvelope_Equal_On_Name_List(t *testing.T) {
	req := require.New(t)

	// Given a hand-built users envelope without names
	bare := Envelope{Kind: KindUsers}

	// Then it matches the constructor form and its own decoded frame
	req.True(bare.Equal(Users(nil)))
	req.True(bare.Equal(Users([]string{})))
	text, err := Encode(bare)
	req.NoError(err)
	req.JSONEq(`{"messageType":"users","dataArray":[]}`, text)
	decoded, err := Decode(text)
	req.NoError(err)
	req.True(bare.Equal(decoded))

	// And order or content differences are not equal
	req.False(Users([]string{"alice", "bob"}).Equal(Users([]string{"bob", "alice"})))
	req.False(Users([]string{"alice"}).Equal(Users(nil)))
	req.False(Register("alice").Equal(Message("alice")))
}

func TestDecode_Uses_Discriminant_Not_Payload_Shape(t *testing.T) {
	req := require.New(t)

	// Given a frame whose shape looks like users but claims to be a message
	_, err := Decode(`{"messageType":"message","dataArray":["alice"]}`)
	req.ErrorIs(err, errors.ErrDecode)

	// Given a frame whose shape looks like a message but claims to be users
	_, err = Decode(`{"messageType":"users","data":"alice"}`)
	req.ErrorIs(err, errors.ErrDecode)

	_, err = Decode(`{"messageType":"register","dataArray":["alice"],"data":"alice"}`)
	req.ErrorIs(err, errors.ErrDecode)
}

func TestDecode_Outer_Failures(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name  string
		input string
	}{
		{"not json", `hello`},
		{"truncated", `{"messageType":"users","dataArray":["alice"`},
		{"array root", `["users"]`},
		{"missing discriminant", `{"dataArray":["alice"]}`},
		{"null root", `null`},
		{"discriminant not a string", `{"messageType":3,"data":"x"}`},
		{"data array of numbers", `{"messageType":"users","dataArray":[1,2]}`},
		{"data not a string", `{"messageType":"message","data":{"from":"bob"}}`},
		{"users with null list", `{"messageType":"users","dataArray":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			req.ErrorIs(err, errors.ErrDecode, "test=%s", tt.name)
			req.NotErrorIs(err, errors.ErrUnknownKind, "test=%s", tt.name)
			req.NotErrorIs(err, errors.ErrChatPayload, "test=%s", tt.name)
		})
	}
}

func TestDecode_Unknown_Discriminant(t *testing.T) {
	req := require.New(t)

	_, err := Decode(`{"messageType":"typing","data":"bob"}`)

	req.ErrorIs(err, errors.ErrDecode)
	req.ErrorIs(err, errors.ErrUnknownKind)
}

func TestDecode_Ignores_Unknown_Fields(t *testing.T) {
	req := require.New(t)

	envelope, err := Decode(`{"messageType":"users","dataArray":["bob"],"room":"lobby"}`)

	req.NoError(err)
	req.Equal(Users([]string{"bob"}), envelope)
}

func TestDecodeChatPayload_Is_A_Separate_Layer(t *testing.T) {
	req := require.New(t)

	// Given a valid outer envelope carrying an invalid nested payload
	envelope, err := Decode(`{"messageType":"message","data":"not json"}`)
	req.NoError(err)
	req.Equal(KindMessage, envelope.Kind)

	// When the nested payload is decoded
	_, err = DecodeChatPayload(envelope.Text)

	// Then the failure belongs to the inner layer only
	req.ErrorIs(err, errors.ErrChatPayload)
	req.NotErrorIs(err, errors.ErrDecode)
}

func TestDecodeChatPayload(t *testing.T) {
	req := require.New(t)

	envelope, err := Decode(`{"messageType":"message","data":"{\"from\":\"bob\",\"message\":\"hi\"}"}`)
	req.NoError(err)

	payload, err := DecodeChatPayload(envelope.Text)
	req.NoError(err)
	req.Equal(ChatPayload{From: "bob", Message: "hi"}, payload)

	_, err = DecodeChatPayload(`{"from":"bob"}`)
	req.ErrorIs(err, errors.ErrChatPayload)

	_, err = DecodeChatPayload(`{"from":"bob","message":7}`)
	req.ErrorIs(err, errors.ErrChatPayload)
}

func TestEncodeChatPayload_Round_Trip(t *testing.T) {
	req := require.New(t)
	payload := ChatPayload{From: "bob", Message: "see https://media.example/cat.gif"}

	text, err := EncodeChatPayload(payload)
	req.NoError(err)
	decoded, err := DecodeChatPayload(text)
	req.NoError(err)
	req.Equal(payload, decoded)
}
