// Package eventbus implements the per-conversation stream hub: an
// in-memory ring buffer of ordered events backed optionally by a durable
// store, with resumable subscription by sequence number. It is the single
// fan-out point between mutating conversation operations and the SSE
// delivery layer in internal/server.
package eventbus

import "encoding/json"

// EventType names one variant of the tagged-union ConversationStreamEvent,
// matching the SSE "event:" field exactly.
type EventType string

const (
	EventThreadNew         EventType = "thread.new"
	EventThreadActivity    EventType = "thread.activity"
	EventMessageDelta      EventType = "message.delta"
	EventMessageDone       EventType = "message.done"
	EventPresenceUpdate    EventType = "presence.update"
	EventTypingUpdate      EventType = "typing.update"
	EventUnreadUpdate      EventType = "unread.update"
	EventMembershipChanged EventType = "membership.changed"
	EventError             EventType = "error"
)

// Event is one stamped, sequenced entry in a conversation's stream.
// Payload carries the event-specific fields, already JSON-encoded so the
// ring buffer and durable store don't need to know the variant's Go type.
type Event struct {
	Sequence       uint64          `json:"sequence"`
	ConversationID string          `json:"conversation_id"`
	Type           EventType       `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	RootMessageID  string          `json:"root_message_id,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
	CreatedAt      int64           `json:"created_at"` // unix nanos
}

// ID renders the event's resumption identifier. Message-scoped events
// (delta, done) carry the three-component root:message:sequence form so a
// reconnecting subscriber's Last-Event-ID still resolves correctly even
// after a chunk-index renumbering; every other event type is identified
// by its bare sequence number.
func (e Event) ID() string {
	messageScoped := e.Type == EventMessageDelta || e.Type == EventMessageDone
	if messageScoped && e.RootMessageID != "" && e.MessageID != "" {
		return e.RootMessageID + ":" + e.MessageID + ":" + formatUint(e.Sequence)
	}
	return formatUint(e.Sequence)
}

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// ThreadNewPayload announces a newly created root thread.
type ThreadNewPayload struct {
	ConversationID string `json:"conversation_id"`
	RootID         string `json:"root_id"`
}

// ThreadActivityPayload reports a thread's updated last-activity time.
type ThreadActivityPayload struct {
	RootID         string `json:"root_id"`
	LastActivityAt string `json:"last_activity_at"`
}

// ChatDelta mirrors one incremental content delta in the standard
// chat-completion-chunk shape.
type ChatDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChatDeltaChoice wraps a ChatDelta the way the chat-completion schema
// nests choices, even though this API never produces more than one.
type ChatDeltaChoice struct {
	Index        int       `json:"index"`
	Delta        ChatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

// MessageDeltaPayload carries one streamed chunk of an assistant reply.
type MessageDeltaPayload struct {
	ID             string            `json:"id"`
	Object         string            `json:"object"`
	ConversationID string            `json:"conversation_id"`
	RootID         string            `json:"root_id"`
	MessageID      string            `json:"message_id"`
	ParentID       string            `json:"parent_id,omitempty"`
	Depth          int               `json:"depth"`
	ChunkIndex     int               `json:"chunk_index"`
	Choices        []ChatDeltaChoice `json:"choices"`
}

// Usage reports token accounting for a completed generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MessageDonePayload marks the exactly-once completion of a streamed
// assistant reply.
type MessageDonePayload struct {
	MessageID      string `json:"message_id"`
	RootID         string `json:"root_id"`
	ConversationID string `json:"conversation_id"`
	FinishReason   string `json:"finish_reason"`
	Usage          *Usage `json:"usage,omitempty"`
}

// PresenceUpdatePayload reports a participant's online/away/offline state.
type PresenceUpdatePayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
}

// TypingUpdatePayload reports a participant composing in a thread, with
// the expiry after which clients should treat it as stale.
type TypingUpdatePayload struct {
	ConversationID string `json:"conversation_id"`
	RootID         string `json:"root_id"`
	UserID         string `json:"user_id"`
	ExpiresAt      string `json:"expires_at"`
}

// UnreadUpdatePayload reports a caller's refreshed unread count for a
// thread, published back to that same caller's subscription only.
type UnreadUpdatePayload struct {
	RootID  string `json:"root_id"`
	Unread  int    `json:"unread"`
}

// MembershipChangedPayload announces a participant add/remove/invite
// state change on a conversation.
type MembershipChangedPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Action         string `json:"action"`
	Role           string `json:"role,omitempty"`
}

// ErrorPayload is the in-band error surfaced when a stream could not
// complete cleanly - the HTTP response itself has already started, so
// this is the only channel left to report the failure.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
