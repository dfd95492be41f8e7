package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/internal/entity"
)

func openTestLedger(t *testing.T) UsageRepository {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "usage.db"), nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewUsageRepository(db, nil)
	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, repo.Migrate(context.Background()), "migrate is idempotent")
	return repo
}

func TestUsageRepository_RecordAndTotals(t *testing.T) {
	repo := openTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	events := []entity.UsageEvent{
		{ID: "a", Action: "generate", Model: "gpt-4o", PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, CostUSD: 0.5, CreatedAt: base.Add(-time.Hour)},
		{ID: "b", Action: "generate", Model: "gpt-4o", PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30, CostUSD: 1.0, CreatedAt: base},
		{ID: "c", UserID: "u1", Action: "batch-generate", Model: "gpt-3.5-turbo", PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2, CostUSD: 0.25, CreatedAt: base.Add(time.Minute)},
	}
	for _, ev := range events {
		require.NoError(t, repo.RecordUsage(ctx, ev))
	}

	all, err := repo.Totals(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Requests)
	assert.Equal(t, int64(31), all.PromptTokens)
	assert.Equal(t, int64(16), all.CompletionTokens)
	assert.Equal(t, int64(47), all.TotalTokens)
	assert.InDelta(t, 1.75, all.CostUSD, 1e-9)
	assert.Equal(t, []entity.ModelUsage{
		{Model: "gpt-3.5-turbo", Requests: 1, TotalTokens: 2, CostUSD: 0.25},
		{Model: "gpt-4o", Requests: 2, TotalTokens: 45, CostUSD: 1.5},
	}, all.ByModel)

	recent, err := repo.Totals(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent.Requests)
	assert.Equal(t, int64(32), recent.TotalTokens)
}

func TestUsageRepository_EmptyTotals(t *testing.T) {
	repo := openTestLedger(t)

	got, err := repo.Totals(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Requests)
	assert.InDelta(t, 0.0, got.CostUSD, 1e-12)
	assert.Empty(t, got.ByModel)
	assert.NotNil(t, got.ByModel)
}

func TestUsageRepository_DuplicateIDFails(t *testing.T) {
	repo := openTestLedger(t)
	ev := entity.UsageEvent{ID: "dup", Action: "generate", Model: "m", CreatedAt: time.Now()}

	require.NoError(t, repo.RecordUsage(context.Background(), ev))
	require.Error(t, repo.RecordUsage(context.Background(), ev))
}
