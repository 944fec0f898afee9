package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultfs/internal/common"
)

func TestReserveQuota(t *testing.T) {
	t.Parallel()
	st, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("reserve within limit succeeds", func(t *testing.T) {
		require.NoError(t, st.ReserveQuota(ctx, "alice", 600, KindImage, 1000))

		q, err := st.GetQuota(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(600), q.TotalUsed)
		assert.Equal(t, int64(600), q.UsedImage)
	})

	t.Run("reserve over limit fails and leaves ledger unchanged", func(t *testing.T) {
		err := st.ReserveQuota(ctx, "alice", 500, KindDocument, 1000)
		assert.ErrorIs(t, err, common.ErrQuotaExceeded)

		q, err := st.GetQuota(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(600), q.TotalUsed)
		assert.Equal(t, int64(0), q.UsedDocument)
	})

	t.Run("exact fit is allowed", func(t *testing.T) {
		require.NoError(t, st.ReserveQuota(ctx, "alice", 400, KindPDF, 1000))

		q, err := st.GetQuota(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), q.TotalUsed)
	})

	t.Run("folder kind has no bucket", func(t *testing.T) {
		err := st.ReserveQuota(ctx, "alice", 10, KindFolder, 1000)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestReserveQuotaConcurrent(t *testing.T) {
	t.Parallel()
	st, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	// 20 concurrent reservations of 100 bytes against a limit of 1000:
	// exactly 10 may win, the rest must see ErrQuotaExceeded.
	const (
		limit    = 1000
		size     = 100
		attempts = 20
	)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- st.ReserveQuota(ctx, "alice", size, KindImage, limit)
		}()
	}
	wg.Wait()
	close(results)

	var wins, refusals int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, common.ErrQuotaExceeded)
			refusals++
		}
	}
	assert.Equal(t, 10, wins)
	assert.Equal(t, 10, refusals)

	q, err := st.GetQuota(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(limit), q.TotalUsed, "ledger must never oversubscribe")
}

func TestReleaseQuota(t *testing.T) {
	t.Parallel()
	st, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, st.ReserveQuota(ctx, "alice", 600, KindImage, 1000))
	require.NoError(t, st.ReleaseQuota(ctx, "alice", 600, KindImage))

	q, err := st.GetQuota(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.TotalUsed)
	assert.Equal(t, int64(0), q.UsedImage)

	t.Run("release floors at zero", func(t *testing.T) {
		require.NoError(t, st.ReleaseQuota(ctx, "alice", 999, KindImage))

		q, err := st.GetQuota(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), q.TotalUsed)
		assert.Equal(t, int64(0), q.UsedImage)
	})
}

func TestGetQuotaUnknownOwner(t *testing.T) {
	t.Parallel()
	st, cleanup := testStore(t)
	defer cleanup()

	q, err := st.GetQuota(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.TotalUsed)

	snap := q.Snapshot(1000)
	assert.Equal(t, int64(1000), snap.Limit)
	assert.Equal(t, int64(1000), snap.Available)
}

func TestReconcileQuota(t *testing.T) {
	t.Parallel()
	st, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	img := newTestEntry("alice", RootID, "pic.png", KindImage, 300)
	doc := newTestEntry("alice", RootID, "a.txt", KindDocument, 200)
	require.NoError(t, st.InsertEntry(ctx, img))
	require.NoError(t, st.InsertEntry(ctx, doc))

	t.Run("repairs a drifted ledger", func(t *testing.T) {
		// Ledger deliberately out of sync with the live entries.
		require.NoError(t, st.ReserveQuota(ctx, "alice", 50, KindImage, 10000))

		report, err := st.ReconcileQuota(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, report.Drifted)
		assert.Equal(t, int64(500), report.Recomputed)

		q, err := st.GetQuota(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(500), q.TotalUsed)
		assert.Equal(t, int64(300), q.UsedImage)
		assert.Equal(t, int64(200), q.UsedDocument)
	})

	t.Run("clean ledger reports no drift", func(t *testing.T) {
		report, err := st.ReconcileQuota(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, report.Drifted)
	})
}
