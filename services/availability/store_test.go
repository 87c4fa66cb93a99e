package availability

import (
	"context"
	"testing"
	"time"

	"mackay-backend/lib/testutil"
	"mackay-backend/services/availability/db"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) SeenStore {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/availability",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewSeenStore(res.DB)
}

func TestSeenStoreWindow(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	now := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	window := time.Hour * 24

	ok, err := store.ShouldAnnounce(ctx, "2025/12/27|上午|尤香玉|302", now, window)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.MarkAnnounced(ctx, "2025/12/27|上午|尤香玉|302", now))

	ok, err = store.ShouldAnnounce(ctx, "2025/12/27|上午|尤香玉|302", now.Add(time.Hour), window)
	require.NoError(t, err)
	require.False(t, ok)

	// other keys are unaffected
	ok, err = store.ShouldAnnounce(ctx, "2025/12/28|上午|尤香玉|302", now.Add(time.Hour), window)
	require.NoError(t, err)
	require.True(t, ok)

	// exactly at the window boundary the slot is eligible again
	ok, err = store.ShouldAnnounce(ctx, "2025/12/27|上午|尤香玉|302", now.Add(window), window)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMarkAnnouncedUpsert(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	now := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	window := time.Hour * 24

	require.NoError(t, store.MarkAnnounced(ctx, "k", now))
	require.NoError(t, store.MarkAnnounced(ctx, "k", now.Add(window)))

	// the later announcement restarts the window
	ok, err := store.ShouldAnnounce(ctx, "k", now.Add(window+time.Hour), window)
	require.NoError(t, err)
	require.False(t, ok)
}
