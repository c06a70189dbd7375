//go:generate go run go.uber.org/mock/mockgen -source=transcript.go -destination=../mocks/mock_transcript_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const transcriptPrefix = "msg:"

type ITranscriptRepository interface {
	Store(record TranscriptRecord) error
	List(sessionID string) ([]TranscriptRecord, error)
	ListAll() ([]TranscriptRecord, error)
}

// TranscriptRecord is one chat line as received by a client session.
type TranscriptRecord struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	At        time.Time `json:"at"`
}

type TranscriptRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger, limit *int) TranscriptRepository {
	return TranscriptRepository{db: db, log: log, limit: limit}
}

// Store persists a record under "msg:{session}:{timestamp_padded}:{uuid}".
// The 19-digit padding keeps lexicographical order chronological and the
// uuid separates records received within the same nanosecond.
func (r TranscriptRepository) Store(record TranscriptRecord) error {
	key := fmt.Sprintf("%s%s:%019d:%s", transcriptPrefix, record.SessionID, record.At.UnixNano(), record.ID)
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// List returns the records of one session, oldest first.
func (r TranscriptRepository) List(sessionID string) ([]TranscriptRecord, error) {
	return r.scan(fmt.Sprintf("%s%s:", transcriptPrefix, sessionID))
}

// ListAll returns every stored record grouped by session.
func (r TranscriptRepository) ListAll() ([]TranscriptRecord, error) {
	return r.scan(transcriptPrefix)
}

func (r TranscriptRepository) scan(prefix string) ([]TranscriptRecord, error) {
	var records []TranscriptRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if r.limit != nil && len(records) == *r.limit {
				r.log.Debug("Transcript limit reached", "limit", *r.limit)
				break
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var record TranscriptRecord
				if err := json.Unmarshal(value, &record); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
