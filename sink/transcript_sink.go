package sink

import (
	"context"
	"kaychat/codec"
	"kaychat/repositories"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TranscriptSink records every chat line seen on the relay.
// Frames other than well-formed messages are skipped: the session owns
// their error reporting.
type TranscriptSink struct {
	repository repositories.ITranscriptRepository
	log        *slog.Logger
	sessionID  string
	now        func() time.Time
}

func NewTranscriptSink(repository repositories.ITranscriptRepository, log *slog.Logger, sessionID string) TranscriptSink {
	return TranscriptSink{
		repository: repository,
		log:        log,
		sessionID:  sessionID,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (t TranscriptSink) Consume(_ context.Context, frame string) error {
	envelope, err := codec.Decode(frame)
	if err != nil || envelope.Kind != codec.KindMessage {
		return nil
	}
	payload, err := codec.DecodeChatPayload(envelope.Text)
	if err != nil {
		t.log.Debug("Transcript skipped malformed message")
		return nil
	}
	return t.repository.Store(repositories.TranscriptRecord{
		ID:        uuid.New(),
		SessionID: t.sessionID,
		Sender:    payload.From,
		Body:      payload.Message,
		At:        t.now(),
	})
}
