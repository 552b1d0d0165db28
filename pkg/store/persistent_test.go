package store_test

import (
	"context"
	"testing"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/store"
	"design-companion-be/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())

	sessions := []entity.ChatSession{{
		Id:        "s1",
		Title:     "Gym layout",
		UpdatedAt: 42,
		Messages: []entity.Message{{
			Id:      "m1",
			Role:    entity.MessageRoleModel,
			Content: "hello",
			Analysis: &entity.DesignAnalysis{
				Rating:          7.5,
				Recommendations: []string{"add daylight"},
			},
			Citations: []entity.GroundingChunk{{Text: "raw"}},
		}},
	}}

	require.NoError(t, a.Set(ctx, store.KeySessions, sessions))
	got := store.Get(ctx, a, store.KeySessions, []entity.ChatSession{})
	assert.Equal(t, sessions, got)
}

func TestGetFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())

	assert.Equal(t, "fallback", store.Get(ctx, a, store.KeyStoreName, "fallback"))

	require.NoError(t, repo.Set(ctx, "client-1", store.KeySessions, []byte("{not json")))
	got := store.Get(ctx, a, store.KeySessions, []entity.ChatSession{})
	assert.Empty(t, got)

	repo.FailReads(true)
	assert.Equal(t, "fallback", store.Get(ctx, a, store.KeyStoreName, "fallback"))
}

func TestSetFailureIsReported(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())

	repo.FailWrites(true)
	err := a.Set(ctx, store.KeyAuth, entity.PersistedAuth{Role: entity.UserRoleAdmin})
	require.Error(t, err)
	assert.Equal(t, apperror.KindQuota, apperror.KindOf(err))
	assert.ErrorIs(t, err, storetest.ErrInjected)
}

func TestResetRemovesOnlyOwnedKeys(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())

	for _, key := range store.OwnedKeys {
		require.NoError(t, a.Set(ctx, key, "v"))
	}
	require.NoError(t, a.Set(ctx, "unrelated", "keep"))

	require.NoError(t, a.Reset(ctx))

	for _, key := range store.OwnedKeys {
		assert.Equal(t, "gone", store.Get(ctx, a, key, "gone"))
	}
	assert.Equal(t, "keep", store.Get(ctx, a, "unrelated", "gone"))
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())
	b := store.NewAdapter(repo, "client-2", logger.NewNopLogger())

	require.NoError(t, a.Set(ctx, store.KeyStoreName, "fileSearchStores/a"))
	assert.Equal(t, "", store.Get(ctx, b, store.KeyStoreName, ""))
}

func TestLoadDistinguishesMissingFromCorrupt(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())

	_, found, err := store.Load[entity.PersistedAuth](ctx, a, store.KeyAuth)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "client-1", store.KeyAuth, []byte("{not json")))
	_, found, err = store.Load[entity.PersistedAuth](ctx, a, store.KeyAuth)
	require.Error(t, err)
	assert.True(t, found)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	repo.FailReads(true)
	_, found, err = store.Load[entity.PersistedAuth](ctx, a, store.KeyAuth)
	require.Error(t, err)
	assert.False(t, found)
}

func TestClosedAdapterRefusesWrites(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewFlakyRepo()
	a := store.NewAdapter(repo, "client-1", logger.NewNopLogger())
	require.NoError(t, a.Set(ctx, store.KeyAuth, "before"))

	a.Close()
	assert.True(t, a.Closed())
	assert.ErrorIs(t, a.Set(ctx, store.KeyAuth, "after"), store.ErrClosed)
	assert.ErrorIs(t, a.Remove(ctx, store.KeyAuth), store.ErrClosed)

	assert.Equal(t, "before", store.Get(ctx, a, store.KeyAuth, ""), "reads still work")
}
