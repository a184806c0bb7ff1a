package dbproc

import "time"

// ActorRow is the credential-bearing identity row returned by the auth
// procedures.
type ActorRow struct {
	ID           string
	Email        string
	Username     string
	DisplayName  string
	PasswordHash string
	Roles        []string
	DisabledAt   *time.Time
}

// SessionRow is a persisted session record.
type SessionRow struct {
	ID               string
	UserID           string
	TokenHash        string
	CSRFToken        string
	RolesSnapshot    []string
	IssuedAt         time.Time
	LastSeenAt       time.Time
	IdleExpiresAt    time.Time
	AbsoluteExpiresAt time.Time
	RequiresRotation bool
	RevokedAt        *time.Time
	RevokedReason    string
	RotatedFrom      string
	UserAgent        string
	IP               string
}

// ConversationRow describes a conversation and the caller's membership.
type ConversationRow struct {
	ID        string
	CreatedAt time.Time
}

// ParticipantRow records one participant's membership in a conversation.
type ParticipantRow struct {
	ConversationID string
	UserID         string
	Role           string
	JoinedAt       time.Time
	LeftAt         *time.Time
}

// InviteRow describes a pending conversation invite.
type InviteRow struct {
	ID             string
	ConversationID string
	InvitedUserID  string
	Role           string
	CreatedAt      time.Time
	RevokedAt      *time.Time
	AcceptedAt     *time.Time
}

// ThreadSummaryRow is the lightweight per-thread listing row.
type ThreadSummaryRow struct {
	RootID         string
	ConversationID string
	LastMessageAt  time.Time
	MessageCount   int
	UnreadCount    int
}

// MessageRow is one node of the conversation tree.
type MessageRow struct {
	ID             string
	ConversationID string
	RootID         string
	ParentID       string
	Path           Path
	Depth          int
	AuthorID       *string
	Role           string
	Content        string
	CreatedAt      time.Time
	EditedAt       *time.Time
	EditReason     string
	DeletedAt      *time.Time
	DeleteReason   string
}

// MessageChunkRow is one persisted partial delta for a message.
type MessageChunkRow struct {
	MessageID  string
	ChunkIndex int
	Delta      string
	CreatedAt  time.Time
}

// UnreadSummaryRow reports unread counts for one root thread.
type UnreadSummaryRow struct {
	RootID      string
	UnreadCount int
}

// ClientMeta captures the fingerprinting data recorded against a session.
type ClientMeta struct {
	UserAgent   string
	IP          string
	Fingerprint string
}
