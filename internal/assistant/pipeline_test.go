package assistant

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vannadii/rustygpt-go/internal/config"
	"github.com/vannadii/rustygpt-go/internal/convo"
	"github.com/vannadii/rustygpt-go/internal/dbproc"
	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/provider"
	"github.com/vannadii/rustygpt-go/internal/streamsup"
)

// fakeStream lets a test script exactly the chunks a generation sees,
// optionally blocking (honoring ctx cancellation) partway through to
// simulate a stalled or cancelled upstream call.
type fakeStream struct {
	ctx        context.Context
	chunks     []provider.Chunk
	idx        int
	blockAfter int
	closed     bool
}

func (s *fakeStream) Recv() (provider.Chunk, error) {
	if s.blockAfter >= 0 && s.idx == s.blockAfter {
		<-s.ctx.Done()
		return provider.Chunk{}, s.ctx.Err()
	}
	if s.idx >= len(s.chunks) {
		return provider.Chunk{}, provider.ErrStreamClosed
	}
	c := s.chunks[s.idx]
	s.idx++
	return c, nil
}

func (s *fakeStream) Close() error { s.closed = true; return nil }

type fakeProvider struct {
	id     string
	model  provider.Model
	chunks []provider.Chunk
	// blockAfter, when > 0, makes the stream block after that many chunks
	// instead of closing, until ctx is cancelled; zero means no blocking.
	blockAfter int
}

func (p *fakeProvider) ID() string            { return p.id }
func (p *fakeProvider) Name() string          { return p.id }
func (p *fakeProvider) Models() []provider.Model { return []provider.Model{p.model} }

func (p *fakeProvider) CreateCompletion(ctx context.Context, _ *provider.CompletionRequest) (provider.CompletionStream, error) {
	blockAfter := p.blockAfter
	if blockAfter == 0 {
		blockAfter = -1
	}
	return &fakeStream{ctx: ctx, chunks: p.chunks, blockAfter: blockAfter}, nil
}

func newTestPipeline(t *testing.T, prov provider.Provider) (*Pipeline, *convo.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	convoSvc := convo.New(dbproc.NewWithDB(db, time.Second))
	hub := eventbus.NewHub(eventbus.Config{RingCapacity: 64}, nil)
	registry := provider.NewRegistry(config.DefaultConfig())
	registry.Register(prov)
	sup := streamsup.New()

	p := New(convoSvc, hub, registry, sup)
	return p, convoSvc, mock
}

func testModel() provider.Model {
	return provider.Model{ID: "echo-1", Name: "Echo", ProviderID: "fake", MaxOutputTokens: 512}
}

func messageRows() []string {
	return []string{
		"id", "conversation_id", "root_id", "parent_id", "path", "depth",
		"author_id", "role", "content", "created_at", "edited_at", "edit_reason",
		"deleted_at", "delete_reason",
	}
}

func TestCompleteStatelessAssemblesResponse(t *testing.T) {
	prov := &fakeProvider{id: "fake", model: testModel(), blockAfter: -1, chunks: []provider.Chunk{
		{Delta: "Hello"},
		{Delta: ", world", FinishReason: "stop", Usage: &provider.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}},
	}}
	p, _, _ := newTestPipeline(t, prov)

	resp, err := p.Complete(context.Background(), &Request{
		Model:    "fake/echo-1",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, world", resp.Choices[0].Message.Content)
	require.Equal(t, FinishStop, resp.Choices[0].FinishReason)
	require.Equal(t, 5, resp.Usage.TotalTokens)
	require.Empty(t, resp.Warnings)
}

func TestCompleteStatefulHappyPath(t *testing.T) {
	prov := &fakeProvider{id: "fake", model: testModel(), blockAfter: -1, chunks: []provider.Chunk{
		{Delta: "hi there"},
		{FinishReason: "stop"},
	}}
	p, _, mock := newTestPipeline(t, prov)
	now := time.Now()

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(true))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("parent1", "u1", "user", "hello").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_get_ancestor_chain").WithArgs("user-msg").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("root1", "c1", "root1", "", "0000000001", 1, "u0", "user", "root turn", now, nil, "", nil, "").
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("user-msg", systemAuthorID, "assistant", "hi there").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "hi there", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_update_message_content").WithArgs("asst-msg", "hi there").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "hi there", now, nil, "", nil, ""))

	resp, err := p.Complete(context.Background(), &Request{
		Model:    "fake/echo-1",
		CallerID: "u1",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hello"}},
		Metadata: &Metadata{ConversationID: "c1", ParentMessageID: "parent1"},
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", resp.Choices[0].Message.Content)
	require.Equal(t, FinishStop, resp.Choices[0].FinishReason)
	require.Empty(t, resp.Warnings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteStatefulRejectsNonParticipant(t *testing.T) {
	prov := &fakeProvider{id: "fake", model: testModel()}
	p, _, mock := newTestPipeline(t, prov)

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(false))

	_, err := p.Complete(context.Background(), &Request{
		Model:    "fake/echo-1",
		CallerID: "u1",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hello"}},
		Metadata: &Metadata{ConversationID: "c1", ParentMessageID: "parent1"},
	})
	require.ErrorIs(t, err, convo.ErrNotParticipant)
}

func TestStreamStatefulCancellationFinalizesWithoutWarning(t *testing.T) {
	prov := &fakeProvider{id: "fake", model: testModel(), blockAfter: 1, chunks: []provider.Chunk{
		{Delta: "partial"},
	}}
	p, _, mock := newTestPipeline(t, prov)
	now := time.Now()

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(true))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("parent1", "u1", "user", "hello").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_get_ancestor_chain").WithArgs("user-msg").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("user-msg", systemAuthorID, "assistant", "partial").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "partial", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_update_message_content").WithArgs("asst-msg", "partial").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "partial", now, nil, "", nil, ""))

	ctx, cancel := context.WithCancel(context.Background())
	frames, err := p.Stream(ctx, &Request{
		Model:    "fake/echo-1",
		CallerID: "u1",
		Stream:   true,
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hello"}},
		Metadata: &Metadata{ConversationID: "c1", ParentMessageID: "parent1"},
	})
	require.NoError(t, err)

	// Drain the first delta frame, then cancel the request context exactly
	// as an HTTP handler would on client disconnect.
	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("never received first frame")
	}
	cancel()

	var sawDone bool
	for f := range frames {
		if f.Data == "[DONE]" {
			sawDone = true
		}
	}
	require.True(t, sawDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamStatefulTimeoutAppendsWarning(t *testing.T) {
	prov := &fakeProvider{id: "fake", model: testModel(), blockAfter: 1, chunks: []provider.Chunk{
		{Delta: "stalling"},
	}}
	p, _, mock := newTestPipeline(t, prov)
	p.GenerationTimeout = 20 * time.Millisecond
	now := time.Now()

	mock.ExpectQuery("sp_user_can_access").WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"sp_user_can_access"}).AddRow(true))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("parent1", "u1", "user", "hello").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_get_ancestor_chain").WithArgs("user-msg").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("user-msg", "c1", "root1", "parent1", "0000000001.0000000002", 2, "u1", "user", "hello", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_reply_message").WithArgs("user-msg", systemAuthorID, "assistant", "stalling").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "stalling", now, nil, "", nil, ""))
	mock.ExpectQuery("FROM sp_update_message_content").
		WillReturnRows(sqlmock.NewRows(messageRows()).
			AddRow("asst-msg", "c1", "root1", "user-msg", "0000000001.0000000002.0000000001", 3, nil, "assistant", "stalling\n⚠️ "+warningTimeout, now, nil, "", nil, ""))

	resp, err := p.Complete(context.Background(), &Request{
		Model:    "fake/echo-1",
		CallerID: "u1",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hello"}},
		Metadata: &Metadata{ConversationID: "c1", ParentMessageID: "parent1"},
	})
	require.NoError(t, err)
	require.Equal(t, FinishTimeout, resp.Choices[0].FinishReason)
	require.Contains(t, resp.Choices[0].Message.Content, warningTimeout)
	require.Len(t, resp.Warnings, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseStopWords(t *testing.T) {
	words, err := ParseStopWords("STOP")
	require.NoError(t, err)
	require.Equal(t, []string{"STOP"}, words)

	words, err = ParseStopWords([]any{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, words)

	words, err = ParseStopWords(nil)
	require.NoError(t, err)
	require.Nil(t, words)

	_, err = ParseStopWords(42)
	require.Error(t, err)
	var assistantErr *Error
	require.ErrorAs(t, err, &assistantErr)
	require.Equal(t, CodeInvalidStop, assistantErr.Code)
}
