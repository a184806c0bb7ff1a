package convo

import (
	"context"
	"errors"

	"github.com/vannadii/rustygpt-go/internal/dbproc"
)

// Service is the authorization-checked façade over dbproc's stored
// procedures - every handler in internal/server reaches the database
// exclusively through this type.
type Service struct {
	db *dbproc.Client
}

// New builds a Service over an open stored-procedure client.
func New(db *dbproc.Client) *Service {
	return &Service{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, dbproc.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, dbproc.ErrForbidden):
		return ErrNotParticipant
	case errors.Is(err, dbproc.ErrValidation):
		return ErrValidation
	case errors.Is(err, dbproc.ErrRateLimited):
		return ErrRateLimited
	default:
		return err
	}
}

func (s *Service) requireAccess(ctx context.Context, userID, conversationID string) error {
	ok, err := s.db.UserCanAccess(ctx, userID, conversationID)
	if err != nil {
		return translate(err)
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// CreateConversation seats userID as the new conversation's owner.
func (s *Service) CreateConversation(ctx context.Context, userID string) (Conversation, error) {
	row, err := s.db.CreateConversation(ctx, userID)
	if err != nil {
		return Conversation{}, translate(err)
	}
	return Conversation{ID: row.ID, CreatedAt: row.CreatedAt}, nil
}

// AddParticipant seats userID into conversationID, requiring actorID to
// already be a member with the authority to add others (enforced by the
// underlying procedure).
func (s *Service) AddParticipant(ctx context.Context, actorID, conversationID, userID, role string) (Participant, error) {
	row, err := s.db.AddParticipant(ctx, actorID, conversationID, userID, role)
	if err != nil {
		return Participant{}, translate(err)
	}
	return Participant{UserID: row.UserID, Role: row.Role, JoinedAt: row.JoinedAt}, nil
}

// RemoveParticipant marks userID as departed from conversationID.
func (s *Service) RemoveParticipant(ctx context.Context, actorID, conversationID, userID string) error {
	return translate(s.db.RemoveParticipant(ctx, actorID, conversationID, userID))
}

// CreateInvite issues a pending invite for invitedUserID.
func (s *Service) CreateInvite(ctx context.Context, actorID, conversationID, invitedUserID, role string) (Invite, error) {
	row, err := s.db.CreateInvite(ctx, actorID, conversationID, invitedUserID, role)
	if err != nil {
		return Invite{}, translate(err)
	}
	return Invite{ID: row.ID, ConversationID: row.ConversationID, InvitedUserID: row.InvitedUserID, Role: row.Role, CreatedAt: row.CreatedAt}, nil
}

// AcceptInvite converts a pending invite into a participant seat for userID.
func (s *Service) AcceptInvite(ctx context.Context, userID, inviteID string) (Participant, error) {
	row, err := s.db.AcceptInvite(ctx, userID, inviteID)
	if err != nil {
		return Participant{}, translate(err)
	}
	return Participant{UserID: row.UserID, Role: row.Role, JoinedAt: row.JoinedAt}, nil
}

// RevokeInvite revokes a pending invite so it can no longer be accepted.
func (s *Service) RevokeInvite(ctx context.Context, actorID, inviteID string) error {
	return translate(s.db.RevokeInvite(ctx, actorID, inviteID))
}

// ListThreads returns one summary per root thread in conversationID,
// after confirming userID is a current participant.
func (s *Service) ListThreads(ctx context.Context, userID, conversationID string, limit, offset int) ([]ThreadSummary, error) {
	if err := s.requireAccess(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.db.ListThreads(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]ThreadSummary, len(rows))
	for i, r := range rows {
		out[i] = summaryFromRow(r)
	}
	return out, nil
}

// GetThreadSubtree returns every message under rootID, after confirming
// userID can access the owning conversation.
func (s *Service) GetThreadSubtree(ctx context.Context, userID, conversationID, rootID string) ([]Message, error) {
	if err := s.requireAccess(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.db.GetThreadSubtree(ctx, rootID)
	if err != nil {
		return nil, translate(err)
	}
	return fromRows(rows), nil
}

// GetAncestorChain returns the path from the thread root down to
// messageID - the prompt-assembly read used by the assistant pipeline.
// It does not itself check conversation access; callers that serve it to
// an end user must call requireAccess first via GetThreadSubtree or an
// explicit check.
func (s *Service) GetAncestorChain(ctx context.Context, messageID string) ([]Message, error) {
	rows, err := s.db.GetAncestorChain(ctx, messageID)
	if err != nil {
		return nil, translate(err)
	}
	return fromRows(rows), nil
}

// PostRootMessage starts a new thread in conversationID, after
// confirming authorID can access it.
func (s *Service) PostRootMessage(ctx context.Context, authorID, conversationID, role, content string) (Message, error) {
	if err := s.requireAccess(ctx, authorID, conversationID); err != nil {
		return Message{}, err
	}
	row, err := s.db.PostRootMessage(ctx, conversationID, authorID, role, content)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// ReplyMessage appends a child to parentID. Access is enforced by the
// underlying procedure, which resolves parentID's conversation itself.
func (s *Service) ReplyMessage(ctx context.Context, authorID, parentID, role, content string) (Message, error) {
	row, err := s.db.ReplyMessage(ctx, parentID, authorID, role, content)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// AppendMessageChunk persists one streamed delta for messageID.
func (s *Service) AppendMessageChunk(ctx context.Context, messageID, delta string) (dbproc.MessageChunkRow, error) {
	row, err := s.db.AppendMessageChunk(ctx, messageID, delta)
	if err != nil {
		return dbproc.MessageChunkRow{}, translate(err)
	}
	return *row, nil
}

// ListMessageChunks returns every persisted delta for messageID, in
// index order - used to reconstruct content for a subscriber resuming
// mid-stream.
func (s *Service) ListMessageChunks(ctx context.Context, messageID string) ([]dbproc.MessageChunkRow, error) {
	rows, err := s.db.ListMessageChunks(ctx, messageID)
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// FinalizeMessage replaces messageID's accumulated chunks with its final
// content - the exactly-once completion of a streamed response.
func (s *Service) FinalizeMessage(ctx context.Context, messageID, content string) (Message, error) {
	row, err := s.db.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// MarkThreadRead advances userID's read cursor on rootID.
func (s *Service) MarkThreadRead(ctx context.Context, userID, rootID, throughMessageID string) error {
	return translate(s.db.MarkThreadRead(ctx, userID, rootID, throughMessageID))
}

// GetUnreadSummary returns userID's unread count per root thread in
// conversationID.
func (s *Service) GetUnreadSummary(ctx context.Context, userID, conversationID string) ([]dbproc.UnreadSummaryRow, error) {
	if err := s.requireAccess(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.db.GetUnreadSummary(ctx, userID, conversationID)
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// SetTyping records that userID is (or has stopped) composing in rootID.
func (s *Service) SetTyping(ctx context.Context, userID, rootID string, typing bool) error {
	return translate(s.db.SetTyping(ctx, userID, rootID, typing))
}

// Heartbeat refreshes userID's presence timestamp for conversationID.
func (s *Service) Heartbeat(ctx context.Context, userID, conversationID string) error {
	return translate(s.db.Heartbeat(ctx, userID, conversationID))
}

// SoftDeleteMessage stamps messageID deleted without removing the row -
// descendants remain addressable by path.
func (s *Service) SoftDeleteMessage(ctx context.Context, actorID, messageID, reason string) (Message, error) {
	row, err := s.db.SoftDeleteMessage(ctx, actorID, messageID, reason)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// RestoreMessage clears a prior soft delete on messageID.
func (s *Service) RestoreMessage(ctx context.Context, actorID, messageID string) (Message, error) {
	row, err := s.db.RestoreMessage(ctx, actorID, messageID)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// EditMessage replaces content on the author's own message.
func (s *Service) EditMessage(ctx context.Context, actorID, messageID, content, reason string) (Message, error) {
	row, err := s.db.EditMessage(ctx, actorID, messageID, content, reason)
	if err != nil {
		return Message{}, translate(err)
	}
	return fromRow(*row), nil
}

// CanAccess reports whether userID is a current participant of
// conversationID - exposed for callers (the event hub's fan-out check)
// that need the raw boolean rather than an error.
func (s *Service) CanAccess(ctx context.Context, userID, conversationID string) (bool, error) {
	ok, err := s.db.UserCanAccess(ctx, userID, conversationID)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}
