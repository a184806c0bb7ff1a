package dbproc

import (
	"context"
	"time"
)

// MarkThreadRead calls sp_mark_thread_read, advancing userID's read
// cursor on rootID to the given message so later unread-summary queries
// stop counting it.
func (c *Client) MarkThreadRead(ctx context.Context, userID, rootID, throughMessageID string) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `SELECT sp_mark_thread_read($1, $2, $3)`, userID, rootID, throughMessageID)
	return mapProcError(err)
}

// GetUnreadSummary calls sp_get_unread_summary, returning the caller's
// unread count per root thread in the conversation.
func (c *Client) GetUnreadSummary(ctx context.Context, userID, conversationID string) ([]UnreadSummaryRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT root_id, unread_count FROM sp_get_unread_summary($1, $2)
	`, userID, conversationID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	var out []UnreadSummaryRow
	for rows.Next() {
		var u UnreadSummaryRow
		if err := rows.Scan(&u.RootID, &u.UnreadCount); err != nil {
			return nil, mapProcError(err)
		}
		out = append(out, u)
	}
	return out, mapProcError(rows.Err())
}

// SetTyping calls sp_set_typing, recording that userID is (or has
// stopped) composing in rootID. Typing state expires on its own; callers
// don't need a matching "stop" call if the client simply goes quiet.
func (c *Client) SetTyping(ctx context.Context, userID, rootID string, typing bool) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `SELECT sp_set_typing($1, $2, $3)`, userID, rootID, typing)
	return mapProcError(err)
}

// Heartbeat calls sp_heartbeat, refreshing the caller's presence
// timestamp for conversationID.
func (c *Client) Heartbeat(ctx context.Context, userID, conversationID string) error {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `SELECT sp_heartbeat($1, $2)`, userID, conversationID)
	return mapProcError(err)
}

// SoftDeleteMessage calls sp_soft_delete_message, stamping deleted_at and
// a reason without removing the row - descendants remain addressable by
// path even once an ancestor is deleted.
func (c *Client) SoftDeleteMessage(ctx context.Context, actorID, messageID, reason string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_soft_delete_message($1, $2, $3)
	`, actorID, messageID, reason)

	return scanMessageRow(row)
}

// RestoreMessage calls sp_restore_message, clearing a prior soft delete.
func (c *Client) RestoreMessage(ctx context.Context, actorID, messageID string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_restore_message($1, $2)
	`, actorID, messageID)

	return scanMessageRow(row)
}

// EditMessage calls sp_edit_message, replacing content and stamping
// edited_at/edit_reason. Editing is only ever permitted on the author's
// own message and never on a message with in-flight chunks.
func (c *Client) EditMessage(ctx context.Context, actorID, messageID, content, reason string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_edit_message($1, $2, $3, $4)
	`, actorID, messageID, content, reason)

	return scanMessageRow(row)
}

// TypingState is a point-in-time snapshot of who is composing in a
// thread, used to render the presence indicator.
type TypingState struct {
	UserID    string
	RootID    string
	UpdatedAt time.Time
}
