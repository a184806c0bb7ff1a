package eventbus

import (
	"context"
	"database/sql"

	"github.com/vannadii/rustygpt-go/internal/dbproc"
)

// PersistenceConfig mirrors config.SSEPersistence, threaded in directly
// so this package doesn't import internal/config.
type PersistenceConfig struct {
	Enabled          bool
	MaxEventsPerUser int
	PruneBatchSize   int
	RetentionHours   int
}

// DurableStore is the optional backing store for stream events beyond
// what the in-memory ring retains. It is consulted only when a
// subscriber's Last-Event-ID predates the oldest event still in the
// ring.
type DurableStore interface {
	Persist(ctx context.Context, e Event) error
	Query(ctx context.Context, conversationID string, afterSeq uint64, limit int) ([]Event, error)
	Prune(ctx context.Context, conversationID string, retentionHours, hardCap, batchSize int) error
}

// sqlDurableStore persists stream events to a plain table alongside the
// stored-procedure schema - this is the one place eventbus reaches the
// database directly rather than through a dbproc method, since the event
// record shape (sequence, event-id-string, event-type, payload,
// root-message-id, created-at) is internal to this package, not part of
// the conversation-tree contract.
type sqlDurableStore struct {
	db *sql.DB
}

// NewDurableStore builds a DurableStore backed by the same connection
// pool as the stored-procedure client.
func NewDurableStore(client *dbproc.Client) DurableStore {
	return &sqlDurableStore{db: client.DB()}
}

func (s *sqlDurableStore) Persist(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rustygpt.stream_events
			(conversation_id, sequence, event_id, event_type, payload, root_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), to_timestamp($7 / 1e9))
		ON CONFLICT (conversation_id, sequence) DO NOTHING
	`, e.ConversationID, e.Sequence, e.ID(), string(e.Type), []byte(e.Payload), e.RootMessageID, e.CreatedAt)
	return err
}

func (s *sqlDurableStore) Query(ctx context.Context, conversationID string, afterSeq uint64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, event_type, payload, COALESCE(root_message_id, ''),
		       extract(epoch from created_at) * 1e9
		FROM rustygpt.stream_events
		WHERE conversation_id = $1 AND sequence > $2
		ORDER BY sequence ASC
		LIMIT $3
	`, conversationID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var eventType string
		var createdAtNanos float64
		if err := rows.Scan(&e.Sequence, &eventType, &e.Payload, &e.RootMessageID, &createdAtNanos); err != nil {
			return nil, err
		}
		e.ConversationID = conversationID
		e.Type = EventType(eventType)
		e.CreatedAt = int64(createdAtNanos)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlDurableStore) Prune(ctx context.Context, conversationID string, retentionHours, hardCap, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retentionHours > 0 {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM rustygpt.stream_events
			WHERE ctid IN (
				SELECT ctid FROM rustygpt.stream_events
				WHERE conversation_id = $1 AND created_at < now() - ($2 || ' hours')::interval
				LIMIT $3
			)
		`, conversationID, retentionHours, batchSize); err != nil {
			return err
		}
	}
	if hardCap > 0 {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM rustygpt.stream_events
			WHERE ctid IN (
				SELECT ctid FROM rustygpt.stream_events
				WHERE conversation_id = $1
				ORDER BY sequence ASC
				OFFSET $2
				LIMIT $3
			)
		`, conversationID, hardCap, batchSize); err != nil {
			return err
		}
	}
	return nil
}
