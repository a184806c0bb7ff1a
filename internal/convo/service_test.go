package convo

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vannadii/rustygpt-go/internal/dbproc"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(dbproc.NewWithDB(db, time.Second)), mock
}

func TestListThreadsRequiresAccess(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(false))

	_, err := svc.ListThreads(context.Background(), "u1", "c1", 20, 0)
	require.ErrorIs(t, err, ErrNotParticipant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListThreadsReturnsSummaries(t *testing.T) {
	svc, mock := newTestService(t)

	now := time.Now()
	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(true))
	mock.ExpectQuery("FROM sp_list_threads").WithArgs("c1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"root_id", "conversation_id", "last_message_at", "message_count", "unread_count"}).
			AddRow("r1", "c1", now, 3, 1))

	out, err := svc.ListThreads(context.Background(), "u1", "c1", 20, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "r1", out[0].RootID)
	require.Equal(t, 1, out[0].UnreadCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRootMessageRequiresAccess(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(false))

	_, err := svc.PostRootMessage(context.Background(), "u1", "c1", "user", "hello")
	require.ErrorIs(t, err, ErrNotParticipant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRootMessagePosts(t *testing.T) {
	svc, mock := newTestService(t)

	now := time.Now()
	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(true))
	mock.ExpectQuery("FROM sp_post_root_message").WithArgs("c1", "u1", "user", "hello").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "root_id", "parent_id", "path", "depth",
			"author_id", "role", "content", "created_at", "edited_at", "edit_reason",
			"deleted_at", "delete_reason",
		}).AddRow("m1", "c1", "m1", "", "0000000001", 0, "u1", "user", "hello", now, nil, "", nil, ""))

	msg, err := svc.PostRootMessage(context.Background(), "u1", "c1", "user", "hello")
	require.NoError(t, err)
	require.Equal(t, "m1", msg.ID)
	require.Equal(t, "hello", msg.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateMapsNotFound(t *testing.T) {
	require.ErrorIs(t, translate(dbproc.ErrNotFound), ErrNotFound)
	require.ErrorIs(t, translate(dbproc.ErrForbidden), ErrNotParticipant)
	require.NoError(t, translate(nil))
}
