package dbproc

import (
	"context"
)

// ListThreads calls sp_list_threads, returning one summary row per root
// message in the conversation, newest-active first.
func (c *Client) ListThreads(ctx context.Context, conversationID string, limit, offset int) ([]ThreadSummaryRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT root_id, conversation_id, last_message_at, message_count, unread_count
		FROM sp_list_threads($1, $2, $3)
	`, conversationID, limit, offset)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	var out []ThreadSummaryRow
	for rows.Next() {
		var t ThreadSummaryRow
		if err := rows.Scan(&t.RootID, &t.ConversationID, &t.LastMessageAt, &t.MessageCount, &t.UnreadCount); err != nil {
			return nil, mapProcError(err)
		}
		out = append(out, t)
	}
	return out, mapProcError(rows.Err())
}

// GetThreadSummary calls sp_get_thread_summary for a single root.
func (c *Client) GetThreadSummary(ctx context.Context, rootID string) (*ThreadSummaryRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT root_id, conversation_id, last_message_at, message_count, unread_count
		FROM sp_get_thread_summary($1)
	`, rootID)

	var t ThreadSummaryRow
	if err := row.Scan(&t.RootID, &t.ConversationID, &t.LastMessageAt, &t.MessageCount, &t.UnreadCount); err != nil {
		return nil, mapProcError(err)
	}
	return &t, nil
}

// GetThreadSubtree calls sp_get_thread_subtree, returning every message
// under rootID (inclusive) in path order - a depth-first, sibling-ordered
// walk, since the persisted path column sorts lexically in that order.
func (c *Client) GetThreadSubtree(ctx context.Context, rootID string) ([]MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_get_thread_subtree($1)
		ORDER BY path
	`, rootID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	return scanMessageRows(rows)
}

// GetAncestorChain calls sp_get_ancestor_chain, returning every message
// from the root down to and including messageID - the prompt-assembly
// walk used by the assistant pipeline.
func (c *Client) GetAncestorChain(ctx context.Context, messageID string) ([]MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_get_ancestor_chain($1)
		ORDER BY path
	`, messageID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	return scanMessageRows(rows)
}

// PostRootMessage calls sp_post_root_message, starting a new thread: the
// message becomes its own root with a single-element path.
func (c *Client) PostRootMessage(ctx context.Context, conversationID, authorID, role, content string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_post_root_message($1, $2, $3, $4)
	`, conversationID, authorID, role, content)

	return scanMessageRow(row)
}

// ReplyMessage calls sp_reply_message, appending a child to parentID. The
// procedure allocates the next sibling label and extends the parent's
// path by one element.
func (c *Client) ReplyMessage(ctx context.Context, parentID, authorID, role, content string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_reply_message($1, $2, $3, $4)
	`, parentID, authorID, role, content)

	return scanMessageRow(row)
}

// AppendMessageChunk calls sp_append_message_chunk, persisting one
// streamed delta at the next chunk_index for messageID. Chunk indices are
// assigned by the procedure so out-of-order publisher retries can't
// clobber an existing chunk.
func (c *Client) AppendMessageChunk(ctx context.Context, messageID, delta string) (*MessageChunkRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT message_id, chunk_index, delta, created_at
		FROM sp_append_message_chunk($1, $2)
	`, messageID, delta)

	var ch MessageChunkRow
	if err := row.Scan(&ch.MessageID, &ch.ChunkIndex, &ch.Delta, &ch.CreatedAt); err != nil {
		return nil, mapProcError(err)
	}
	return &ch, nil
}

// ListMessageChunks calls sp_list_message_chunks, returning every
// persisted delta for messageID in index order - used to reconstruct
// content for a subscriber that resumed mid-stream.
func (c *Client) ListMessageChunks(ctx context.Context, messageID string) ([]MessageChunkRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT message_id, chunk_index, delta, created_at
		FROM sp_list_message_chunks($1)
		ORDER BY chunk_index
	`, messageID)
	if err != nil {
		return nil, mapProcError(err)
	}
	defer rows.Close()

	var out []MessageChunkRow
	for rows.Next() {
		var ch MessageChunkRow
		if err := rows.Scan(&ch.MessageID, &ch.ChunkIndex, &ch.Delta, &ch.CreatedAt); err != nil {
			return nil, mapProcError(err)
		}
		out = append(out, ch)
	}
	return out, mapProcError(rows.Err())
}

// UpdateMessageContent calls sp_update_message_content, the exactly-once
// finalization step that replaces a message's accumulated chunks with its
// final content and clears its in-flight state.
func (c *Client) UpdateMessageContent(ctx context.Context, messageID, content string) (*MessageRow, error) {
	ctx, cancel := c.withStatementTimeout(ctx)
	defer cancel()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, root_id, COALESCE(parent_id, ''), path, depth,
		       author_id, role, content, created_at, edited_at, COALESCE(edit_reason, ''),
		       deleted_at, COALESCE(delete_reason, '')
		FROM sp_update_message_content($1, $2)
	`, messageID, content)

	return scanMessageRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessageRow(row rowScanner) (*MessageRow, error) {
	var m MessageRow
	var pathStr string
	var authorID *string
	if err := row.Scan(&m.ID, &m.ConversationID, &m.RootID, &m.ParentID, &pathStr, &m.Depth,
		&authorID, &m.Role, &m.Content, &m.CreatedAt, &m.EditedAt, &m.EditReason,
		&m.DeletedAt, &m.DeleteReason); err != nil {
		return nil, mapProcError(err)
	}
	path, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}
	m.Path = path
	m.AuthorID = authorID
	return &m, nil
}

func scanMessageRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]MessageRow, error) {
	var out []MessageRow
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, mapProcError(rows.Err())
}
