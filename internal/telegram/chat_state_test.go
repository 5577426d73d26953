package telegram

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ai-shopping-list/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStateRepository(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewChatStateRepository(db.SQL, time.Hour)
	repo.now = func() time.Time { return now }

	st, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &ChatState{ChatID: 1}, st)

	st.OpenListID = 7
	st.setPending(actionNew, ChatContext{Title: "Party"})
	require.NoError(t, repo.Save(ctx, st))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.OpenListID)
	assert.Equal(t, actionNew, got.PendingAction)
	assert.Equal(t, "Party", got.Context.Title)
	assert.Equal(t, now.Add(time.Hour), got.ExpiresAt)

	got.clearPending()
	require.NoError(t, repo.Save(ctx, got))
	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.PendingAction)
	assert.Equal(t, ChatContext{}, got.Context)

	t.Run("expired state reads as fresh", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		got, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, got.OpenListID)

		removed, err := repo.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &ChatState{ChatID: 2, OpenListID: 3}))
		require.NoError(t, repo.Delete(ctx, 2))
		got, err := repo.Get(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, got.OpenListID)
	})
}
