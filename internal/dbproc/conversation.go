package dbproc

import (
	"context"
)

// CreateConversation calls sp_create_conversation, which creates the
// conversation row and seats the creator as its first participant with
// role "owner" in a single transaction.
func (c *Client) CreateConversation(ctx context.Context, creatorID string) (*ConversationRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `SELECT id, created_at FROM sp_create_conversation($1)`, creatorID)

	var conv ConversationRow
	if err := row.Scan(&conv.ID, &conv.CreatedAt); err != nil {
		return nil, mapProcError(err)
	}
	return &conv, nil
}

// AddParticipant calls sp_add_participant, seating userID into
// conversationID with the given role. Raises RGP.403 if actorID lacks
// the authority to add participants, RGP.VALIDATION on a duplicate seat.
func (c *Client) AddParticipant(ctx context.Context, actorID, conversationID, userID, role string) (*ParticipantRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at, left_at
		FROM sp_add_participant($1, $2, $3, $4)
	`, actorID, conversationID, userID, role)

	var p ParticipantRow
	if err := row.Scan(&p.ConversationID, &p.UserID, &p.Role, &p.JoinedAt, &p.LeftAt); err != nil {
		return nil, mapProcError(err)
	}
	return &p, nil
}

// RemoveParticipant calls sp_remove_participant, marking the
// participant's left_at timestamp rather than deleting the row so
// historical authorship on existing messages is preserved.
func (c *Client) RemoveParticipant(ctx context.Context, actorID, conversationID, userID string) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `SELECT sp_remove_participant($1, $2, $3)`, actorID, conversationID, userID)
	return mapProcError(err)
}

// CreateInvite calls sp_create_invite, issuing a pending invite for
// invitedUserID to join conversationID with the given role.
func (c *Client) CreateInvite(ctx context.Context, actorID, conversationID, invitedUserID, role string) (*InviteRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, invited_user_id, role, created_at, revoked_at, accepted_at
		FROM sp_create_invite($1, $2, $3, $4)
	`, actorID, conversationID, invitedUserID, role)

	var inv InviteRow
	if err := row.Scan(&inv.ID, &inv.ConversationID, &inv.InvitedUserID, &inv.Role, &inv.CreatedAt, &inv.RevokedAt, &inv.AcceptedAt); err != nil {
		return nil, mapProcError(err)
	}
	return &inv, nil
}

// AcceptInvite calls sp_accept_invite, converting a pending invite into a
// participant row for the accepting user. Raises RGP.404 if the invite
// does not exist or was issued to a different user, RGP.VALIDATION if it
// was already accepted or revoked.
func (c *Client) AcceptInvite(ctx context.Context, userID, inviteID string) (*ParticipantRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at, left_at
		FROM sp_accept_invite($1, $2)
	`, userID, inviteID)

	var p ParticipantRow
	if err := row.Scan(&p.ConversationID, &p.UserID, &p.Role, &p.JoinedAt, &p.LeftAt); err != nil {
		return nil, mapProcError(err)
	}
	return &p, nil
}

// RevokeInvite calls sp_revoke_invite, marking the invite revoked so it
// can no longer be accepted.
func (c *Client) RevokeInvite(ctx context.Context, actorID, inviteID string) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `SELECT sp_revoke_invite($1, $2)`, actorID, inviteID)
	return mapProcError(err)
}

// ListParticipants returns the current (non-departed) seats for a
// conversation, used by the authorization check before fanning a message
// or stream event out to every member.
func (c *Client) ListParticipants(ctx context.Context, conversationID string) ([]ParticipantRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at, left_at
		FROM rustygpt.conversation_participants
		WHERE conversation_id = $1 AND left_at IS NULL
	`, conversationID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	var out []ParticipantRow
	for rows.Next() {
		var p ParticipantRow
		if err := rows.Scan(&p.ConversationID, &p.UserID, &p.Role, &p.JoinedAt, &p.LeftAt); err != nil {
			return nil, mapProcError(err)
		}
		out = append(out, p)
	}
	return out, mapProcError(rows.Err())
}

// UserCanAccess calls sp_user_can_access, the single authorization check
// every thread and message endpoint runs before doing anything else: is
// userID a current (non-departed) participant of conversationID.
func (c *Client) UserCanAccess(ctx context.Context, userID, conversationID string) (bool, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	var allowed bool
	row := c.db.QueryRowContext(ctx, `SELECT sp_user_can_access($1, $2)`, userID, conversationID)
	if err := row.Scan(&allowed); err != nil {
		return false, mapProcError(err)
	}
	return allowed, nil
}
