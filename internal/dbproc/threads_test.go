package dbproc

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostRootMessageAssignsSingleElementPath(t *testing.T) {
	c, mock := newMockClient(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "conversation_id", "root_id", "parent_id", "path", "depth",
		"author_id", "role", "content", "created_at", "edited_at", "edit_reason",
		"deleted_at", "delete_reason",
	}).AddRow("m1", "c1", "m1", "", "0000000001", 1, "u1", "user", "hello", now, nil, "", nil, "")
	mock.ExpectQuery("FROM sp_post_root_message").WithArgs("c1", "u1", "user", "hello").WillReturnRows(rows)

	m, err := c.PostRootMessage(context.Background(), "c1", "u1", "user", "hello")
	require.NoError(t, err)
	require.Equal(t, Path{1}, m.Path)
	require.Equal(t, 1, m.Depth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetThreadSubtreeOrdersByPath(t *testing.T) {
	c, mock := newMockClient(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "conversation_id", "root_id", "parent_id", "path", "depth",
		"author_id", "role", "content", "created_at", "edited_at", "edit_reason",
		"deleted_at", "delete_reason",
	}).
		AddRow("m1", "c1", "m1", "", "0000000001", 1, "u1", "user", "hello", now, nil, "", nil, "").
		AddRow("m2", "c1", "m1", "m1", "0000000001.0000000001", 2, "u2", "assistant", "hi", now, nil, "", nil, "")
	mock.ExpectQuery("FROM sp_get_thread_subtree").WithArgs("m1").WillReturnRows(rows)

	msgs, err := c.GetThreadSubtree(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.True(t, msgs[0].Path.IsPrefixOf(msgs[1].Path))
	require.NoError(t, mock.ExpectationsWereMet())
}
