package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/consult/session"
	"design-companion-be/pkg/gemini"
	"design-companion-be/pkg/store"
	"design-companion-be/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const client = "client-1"

func TestConsultationRoundTrip(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	assert.Empty(t, f.svc.GetSessions(ctx, client).Sessions)

	created, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSessionTitle, created.Session.Title)
	require.NotNil(t, created.UI.ActiveSessionId)
	assert.Equal(t, created.Session.Id, *created.UI.ActiveSessionId)
	assert.False(t, created.UI.IsSidebarOpen)

	time.Sleep(2 * time.Millisecond)
	res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Describe a safe corridor layout"})
	require.NoError(t, err)
	require.NotNil(t, res)

	sess, err := f.svc.GetSession(ctx, client, created.Session.Id)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, entity.MessageRoleUser, sess.Messages[0].Role)
	assert.Equal(t, entity.MessageRoleModel, sess.Messages[1].Role)
	assert.Equal(t, "Keep corridors at least 1.5m wide.", sess.Messages[1].Content)
	assert.Equal(t, "Describe a safe corridor layou...", sess.Title)
	assert.Greater(t, sess.UpdatedAt, created.Session.UpdatedAt)

	assert.Empty(t, f.consultant.history, "history excludes the new turn")
	assert.Equal(t, []string{"session_created"}, f.publisher.Events())
}

func TestFailingChatAppendsOneErrorMessage(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	f.consultant.chatErr = errors.New("429 Too Many Requests")

	created, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hello"})
	require.NoError(t, err)

	sess, _ := f.svc.GetSession(ctx, client, created.Session.Id)
	require.Len(t, sess.Messages, 2)
	reply := sess.Messages[1]
	assert.Equal(t, entity.MessageRoleModel, reply.Role)
	assert.True(t, reply.IsError)
	assert.Equal(t, ErrorReply, reply.Content)

	ws := f.workspaces.Get(ctx, client)
	assert.False(t, ws.UI.IsLoading())
	assert.Contains(t, f.publisher.Events(), "consultation_failed:rate_limited")
}

func TestEmptyReplyUsesFallback(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	f.consultant.chatText = ""

	_, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)
	res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, res.Reply.Content)
	assert.False(t, res.Reply.IsError)
}

func TestImageUsesAnalysis(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	f.consultant.analysis = &gemini.AnalysisResult{
		Text:     "Bright and calm.",
		Analysis: entity.DesignAnalysis{Rating: 8, Recommendations: []string{"Add acoustic panels"}},
	}

	_, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)
	res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Image: "data:image/png;base64,AAAA"})
	require.NoError(t, err)

	require.NotNil(t, res.Reply.Analysis)
	assert.Equal(t, 8.0, res.Reply.Analysis.Rating)
	assert.Equal(t, "data:image/png;base64,AAAA", res.UserMessage.Image)
	assert.Equal(t, ImageOnlyContent, res.UserMessage.Content)
	assert.Equal(t, []string{"analyze"}, f.consultant.calls)
}

func TestSendIsDropped(t *testing.T) {
	ctx := context.Background()

	t.Run("no active session", func(t *testing.T) {
		f := newFixture(nil)
		res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
		assert.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, f.consultant.calls)
	})

	t.Run("nothing to send", func(t *testing.T) {
		f := newFixture(nil)
		_, err := f.svc.CreateNewSession(ctx, client, "")
		require.NoError(t, err)
		res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "   "})
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("reply in flight", func(t *testing.T) {
		f := newFixture(nil)
		_, err := f.svc.CreateNewSession(ctx, client, "")
		require.NoError(t, err)
		ws := f.workspaces.Get(ctx, client)
		require.True(t, ws.UI.TryBeginLoading())

		res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
		assert.NoError(t, err)
		assert.Nil(t, res)
		assert.True(t, ws.UI.IsLoading(), "the owner keeps the flag")
	})

	t.Run("active session vanished", func(t *testing.T) {
		f := newFixture(nil)
		ws := f.workspaces.Get(ctx, client)
		ws.UI.SetActiveSession("gone")

		res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
		assert.NoError(t, err)
		assert.Nil(t, res)
		_, ok := ws.UI.ActiveSession()
		assert.False(t, ok)
	})
}

func TestConcurrentSendsOnlyOneRuns(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	created, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
		}()
	}
	wg.Wait()

	sess, _ := f.svc.GetSession(ctx, client, created.Session.Id)
	assert.Equal(t, 0, len(sess.Messages)%2, "every user turn has exactly one reply")
	assert.False(t, f.workspaces.Get(ctx, client).UI.IsLoading())
}

func TestDeleteActiveSessionClearsPointer(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, _ := f.svc.CreateNewSession(ctx, client, "")
	second, _ := f.svc.CreateNewSession(ctx, client, "")

	require.NoError(t, f.svc.DeleteSession(ctx, client, first.Session.Id))
	list := f.svc.GetSessions(ctx, client)
	require.NotNil(t, list.ActiveSessionId)
	assert.Equal(t, second.Session.Id, *list.ActiveSessionId)

	require.NoError(t, f.svc.DeleteSession(ctx, client, second.Session.Id))
	list = f.svc.GetSessions(ctx, client)
	assert.Nil(t, list.ActiveSessionId)
	assert.Empty(t, list.Sessions)

	require.NoError(t, f.svc.DeleteSession(ctx, client, "unknown"))
	assert.Equal(t, []string{"session_created", "session_created", "session_deleted", "session_deleted"}, f.publisher.Events())
}

func TestRenameSession(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	created, _ := f.svc.CreateNewSession(ctx, client, "")

	renamed, err := f.svc.RenameSession(ctx, client, created.Session.Id, "Lobby review")
	require.NoError(t, err)
	assert.Equal(t, "Lobby review", renamed.Title)

	_, err = f.svc.RenameSession(ctx, client, "missing", "x")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestHandleErrorRoutesByKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dto.ErrorSlotsResponse
	}{
		{"credential", apperror.New(apperror.KindCredential, "no key"), dto.ErrorSlotsResponse{Auth: apperror.MessageFor(apperror.KindCredential)}},
		{"forbidden", apperror.New(apperror.KindForbidden, "denied"), dto.ErrorSlotsResponse{Auth: apperror.MessageFor(apperror.KindForbidden)}},
		{"session", apperror.New(apperror.KindSession, "x"), dto.ErrorSlotsResponse{Sessions: apperror.MessageFor(apperror.KindSession)}},
		{"file", apperror.New(apperror.KindFile, "x"), dto.ErrorSlotsResponse{Library: apperror.MessageFor(apperror.KindFile)}},
		{"untagged text", errors.New("upload broke"), dto.ErrorSlotsResponse{Library: apperror.MessageFor(apperror.KindFile)}},
		{"network", apperror.New(apperror.KindNetwork, "x"), dto.ErrorSlotsResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			ctx := context.Background()
			msg := f.svc.HandleError(ctx, client, tt.err)
			assert.Equal(t, apperror.UserMessage(tt.err), msg)
			assert.Equal(t, tt.want, *f.svc.GetErrors(ctx, client))

			f.svc.ClearErrors(ctx, client)
			assert.Equal(t, dto.ErrorSlotsResponse{}, *f.svc.GetErrors(ctx, client))
		})
	}
}

func TestPersistFailureKeepsSession(t *testing.T) {
	repo := storetest.NewFlakyRepo()
	f := newFixture(repo)
	ctx := context.Background()
	repo.FailWrites(true)

	created, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)
	assert.Len(t, f.svc.GetSessions(ctx, client).Sessions, 1)
	assert.Equal(t, session.ErrCreateSession, f.svc.GetErrors(ctx, client).Sessions)

	res, err := f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "Hi"})
	require.NoError(t, err)
	require.NotNil(t, res)
	sess, _ := f.svc.GetSession(ctx, client, created.Session.Id)
	assert.Len(t, sess.Messages, 2)
}

func TestResetClient(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, _ = f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, f.repo.Set(ctx, client, "unrelated", []byte(`"keep"`)))

	require.NoError(t, f.svc.ResetClient(ctx, client))

	assert.Empty(t, f.svc.GetSessions(ctx, client).Sessions)
	_, err := f.repo.Get(ctx, client, store.KeySessions)
	assert.Error(t, err)
	raw, err := f.repo.Get(ctx, client, "unrelated")
	require.NoError(t, err)
	assert.Equal(t, `"keep"`, string(raw))
	assert.Contains(t, f.publisher.Events(), "client_reset")
}

func TestResetDuringReplyStaysReset(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	f.consultant.entered = make(chan struct{})
	f.consultant.release = make(chan struct{})

	_, err := f.svc.CreateNewSession(ctx, client, "")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.svc.SendMessage(ctx, client, dto.SendMessageRequest{Content: "hello"})
	}()

	<-f.consultant.entered
	require.NoError(t, f.svc.ResetClient(ctx, client))
	close(f.consultant.release)
	<-done

	_, err = f.repo.Get(ctx, client, store.KeySessions)
	assert.Error(t, err, "late reply must not restore the sessions key")
	assert.Empty(t, f.svc.GetSessions(ctx, client).Sessions)

	f.workspaces.Drop(client)
	assert.Empty(t, f.svc.GetSessions(ctx, client).Sessions, "nothing to reload")
}

func TestEvictedWorkspaceStopsWriting(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.CreateNewSession(ctx, "a", "")
	require.NoError(t, err)

	stale := f.workspaces.Get(ctx, "a")
	f.workspaces.Drop("a")
	assert.True(t, stale.Store.Closed())

	_, err = stale.Sessions.CreateSession(ctx, "")
	assert.ErrorIs(t, err, store.ErrClosed)

	fresh := f.workspaces.Get(ctx, "a")
	assert.NotSame(t, stale, fresh)
	assert.Len(t, fresh.Sessions.Sessions(), 1)
}

func TestWorkspacesAreIsolated(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, _ = f.svc.CreateNewSession(ctx, "a", "")

	assert.Len(t, f.svc.GetSessions(ctx, "a").Sessions, 1)
	assert.Empty(t, f.svc.GetSessions(ctx, "b").Sessions)
	assert.Same(t, f.workspaces.Get(ctx, "a"), f.workspaces.Get(ctx, "a"))
	assert.Equal(t, 2, f.workspaces.Count())

	f.workspaces.Drop("a")
	assert.Len(t, f.svc.GetSessions(ctx, "a").Sessions, 1, "reloaded from storage")
}
