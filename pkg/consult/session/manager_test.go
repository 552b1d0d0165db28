package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/store"
	"design-companion-be/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    *storetest.FlakyRepo
	adapter *store.Adapter
	manager *Manager
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  storetest.NewFlakyRepo(),
		clock: time.UnixMilli(1_700_000_000_000),
	}
	f.adapter = store.NewAdapter(f.repo, "client", logger.NewNopLogger())
	f.manager = f.reload()
	return f
}

// reload simulates a page reload against the same backing store.
func (f *fixture) reload() *Manager {
	m := NewManager(context.Background(), f.adapter, logger.NewNopLogger())
	m.now = func() time.Time {
		f.clock = f.clock.Add(time.Millisecond)
		return f.clock
	}
	return m
}

func TestCreateSessionNewestFirstAndUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := f.manager.CreateSession(ctx, "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	sessions := f.manager.Sessions()
	require.Len(t, sessions, 10)
	seen := map[string]bool{}
	for i, s := range sessions {
		assert.Equal(t, ids[len(ids)-1-i], s.Id)
		assert.Equal(t, entity.DefaultSessionTitle, s.Title)
		assert.False(t, seen[s.Id])
		seen[s.Id] = true
	}

	latest, ok := f.manager.MostRecent()
	require.True(t, ok)
	assert.Equal(t, ids[len(ids)-1], latest.Id)
}

func TestAddMessageDerivesTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Describe a safe corridor", "Describe a safe corridor"},
		{"exact", strings.Repeat("a", TitleMaxLength), strings.Repeat("a", TitleMaxLength)},
		{"long", "Describe a safe corridor layout for a primary school", "Describe a safe corridor layou..."},
		{"multibyte", strings.Repeat("é", 31), strings.Repeat("é", 30) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id, err := f.manager.CreateSession(ctx, "")
			require.NoError(t, err)

			_, err = f.manager.AddMessage(ctx, id, entity.Message{Role: entity.MessageRoleUser, Content: tt.content})
			require.NoError(t, err)

			s, ok := f.manager.Get(id)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Title)
		})
	}
}

func TestTitleOnlyFromFirstUserMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.manager.CreateSession(ctx, "")

	_, err := f.manager.AddMessage(ctx, id, entity.Message{Role: entity.MessageRoleModel, Content: "Welcome"})
	require.NoError(t, err)
	_, err = f.manager.AddMessage(ctx, id, entity.Message{Role: entity.MessageRoleUser, Content: "Second"})
	require.NoError(t, err)

	s, _ := f.manager.Get(id)
	assert.Equal(t, entity.DefaultSessionTitle, s.Title)
}

func TestAddMessageStampsAndAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.manager.CreateSession(ctx, "")
	before, _ := f.manager.Get(id)

	first, err := f.manager.AddMessage(ctx, id, entity.Message{Role: entity.MessageRoleUser, Content: "one"})
	require.NoError(t, err)
	second, err := f.manager.AddMessage(ctx, id, entity.Message{Role: entity.MessageRoleModel, Content: "two"})
	require.NoError(t, err)

	assert.NotEmpty(t, first.Id)
	assert.NotEqual(t, first.Id, second.Id)
	assert.Greater(t, second.Timestamp, first.Timestamp)

	s, _ := f.manager.Get(id)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "one", s.Messages[0].Content)
	assert.Equal(t, "two", s.Messages[1].Content)
	assert.Greater(t, s.UpdatedAt, before.UpdatedAt)
}

func TestAddMessageUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.AddMessage(context.Background(), "nope", entity.Message{Role: entity.MessageRoleUser})
	require.Error(t, err)
	assert.Equal(t, apperror.KindSession, apperror.KindOf(err))
	assert.Equal(t, ErrAddMessage, f.manager.Error())
}

func TestDeleteUnknownSessionIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = f.manager.CreateSession(ctx, fmt.Sprintf("s%d", i))
	}
	before := f.manager.Sessions()

	require.NoError(t, f.manager.DeleteSession(ctx, "missing"))
	assert.Equal(t, before, f.manager.Sessions())
	assert.Empty(t, f.manager.Error())
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.manager.CreateSession(ctx, "a")
	b, _ := f.manager.CreateSession(ctx, "b")

	require.NoError(t, f.manager.DeleteSession(ctx, a))
	sessions := f.manager.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, b, sessions[0].Id)
}

func TestUpdateSessionRenames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.manager.CreateSession(ctx, "")
	title := "Library wing"

	require.NoError(t, f.manager.UpdateSession(ctx, id, Update{Title: &title}))
	s, _ := f.manager.Get(id)
	assert.Equal(t, "Library wing", s.Title)
}

func TestReloadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.manager.CreateSession(ctx, "")
	_, err := f.manager.AddMessage(ctx, id, entity.Message{
		Role:    entity.MessageRoleModel,
		Content: "analysis",
		Analysis: &entity.DesignAnalysis{
			Rating:          8,
			Principles:      entity.Principles{Safety: "good"},
			Recommendations: []string{"widen corridor"},
		},
	})
	require.NoError(t, err)

	reloaded := f.reload()
	assert.Equal(t, f.manager.Sessions(), reloaded.Sessions())
}

func TestReloadCorruptedData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.Set(context.Background(), "client", store.KeySessions, []byte(`[{"id":`)))

	reloaded := f.reload()
	assert.Empty(t, reloaded.Sessions())
}

func TestPersistFailureKeepsMemoryAndSetsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.FailWrites(true)

	id, err := f.manager.CreateSession(ctx, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindSession, apperror.KindOf(err))
	assert.Equal(t, ErrCreateSession, apperror.PublicMessage(err))
	assert.Equal(t, ErrCreateSession, f.manager.Error())

	_, ok := f.manager.Get(id)
	assert.True(t, ok)

	f.repo.FailWrites(false)
	_, err = f.manager.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, f.manager.Error())
}

func TestMostRecentUsesCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	older, _ := f.manager.CreateSession(ctx, "older")
	newer, _ := f.manager.CreateSession(ctx, "newer")

	// a rename refreshes updatedAt but not the creation order
	title := "renamed"
	require.NoError(t, f.manager.UpdateSession(ctx, older, Update{Title: &title}))

	latest, ok := f.manager.MostRecent()
	require.True(t, ok)
	assert.Equal(t, newer, latest.Id)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "", DeriveTitle(""))
	assert.Equal(t, strings.Repeat("x", 30)+"...", DeriveTitle(strings.Repeat("x", 45)))
}
