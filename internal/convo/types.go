// Package convo implements the threaded-conversation service: the
// authorization-checked, materialized-path message tree that sits above
// the stored-procedure contract in internal/dbproc. ListThreads,
// GetThreadSubtree, PostRootMessage and GetUnreadSummary first confirm the
// caller is a current participant of the conversation; the other methods
// call dbproc without a membership check of their own.
package convo

import (
	"time"

	"github.com/vannadii/rustygpt-go/internal/dbproc"
)

// Message is the service-level view of one node in a conversation's
// message tree.
type Message struct {
	ID             string
	ConversationID string
	RootID         string
	ParentID       string
	Path           dbproc.Path
	Depth          int
	AuthorID       string
	Role           string
	Content        string
	CreatedAt      time.Time
	EditedAt       *time.Time
	EditReason     string
	DeletedAt      *time.Time
	DeleteReason   string
}

func fromRow(r dbproc.MessageRow) Message {
	m := Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		RootID:         r.RootID,
		ParentID:       r.ParentID,
		Path:           r.Path,
		Depth:          r.Depth,
		Role:           r.Role,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
		EditedAt:       r.EditedAt,
		EditReason:     r.EditReason,
		DeletedAt:      r.DeletedAt,
		DeleteReason:   r.DeleteReason,
	}
	if r.AuthorID != nil {
		m.AuthorID = *r.AuthorID
	}
	return m
}

func fromRows(rows []dbproc.MessageRow) []Message {
	out := make([]Message, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out
}

// ThreadSummary is one row of a conversation's thread listing.
type ThreadSummary struct {
	RootID         string
	ConversationID string
	LastMessageAt  time.Time
	MessageCount   int
	UnreadCount    int
}

func summaryFromRow(r dbproc.ThreadSummaryRow) ThreadSummary {
	return ThreadSummary{
		RootID:         r.RootID,
		ConversationID: r.ConversationID,
		LastMessageAt:  r.LastMessageAt,
		MessageCount:   r.MessageCount,
		UnreadCount:    r.UnreadCount,
	}
}

// Conversation is the service-level view of a conversation and its
// current (non-departed) participants.
type Conversation struct {
	ID           string
	CreatedAt    time.Time
	Participants []Participant
}

// Participant records one user's membership and role in a conversation.
type Participant struct {
	UserID   string
	Role     string
	JoinedAt time.Time
}

// Invite is a pending invitation to join a conversation.
type Invite struct {
	ID             string
	ConversationID string
	InvitedUserID  string
	Role           string
	CreatedAt      time.Time
}
