package app

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.LoadConfig()
	cfg.LLM.APIKey = ""
	cfg.Images.SearchURL = ""
	cfg.Mirror = common.MirrorConfig{}
	cfg.Database.DSN = ""
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "usage.db")
	cfg.Pipeline.DebugAnnotations = true
	cfg.Usage.Enabled = true
	return cfg
}

func TestBuild_UnconfiguredCompletionFallsBack(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NotNil(t, a.Usage, "sqlite ledger opens in a temp dir")

	rec := a.Generator.Generate(ctx, "6203-2RS", pipeline.Options{})
	assert.Equal(t, "6203-2RS", rec.ProductName)
	assert.Equal(t, constants.ConfidenceNoSourceStrict, rec.SourceConfidence)
	assert.Contains(t, rec.Error, "CONFIG_ERROR")

	totals, err := a.Usage.Totals(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, totals.Requests)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Concurrency = 0

	_, err := Build(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestNewLogger_TextDropsTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false, slog.LevelInfo).Info("pipeline.item.done", "part", "X")

	assert.Equal(t, "msg=pipeline.item.done part=X\n", buf.String())
}
