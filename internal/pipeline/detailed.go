package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

// DetailedSpec writes a free-text bilingual technical report for an already generated record.
func (g *Generator) DetailedSpec(ctx context.Context, rec entity.PartRecord) (string, error) {
	if g.deps.Detail == nil {
		return "", common.ConfigurationError("completion service is not configured")
	}
	if _, err := common.ValidatePartIdentifier(rec.PartNumber); err != nil {
		return "", err
	}
	ctx = common.WithAction(ctx, "detailed-spec")

	res, err := g.deps.Detail.Complete(ctx, llm.BuildDetailedSpecRequest(rec, g.cfg.Prompt.SecondaryLanguage))
	if err != nil {
		g.logger.Warn("pipeline.detail.error", "part", rec.PartNumber, "error", err)
		return "", fmt.Errorf("detailed spec for %s: %w", rec.PartNumber, err)
	}
	report := strings.TrimSpace(res.Content)
	if report == "" {
		return "", common.CompletionError("empty detailed spec", nil)
	}
	g.logger.Info("pipeline.detail.ok", "part", rec.PartNumber, "chars", len(report))
	return report, nil
}

// Images runs image acquisition alone. Without an acquirer the placeholder is returned.
func (g *Generator) Images(ctx context.Context, part string, h images.Hints) []string {
	if g.deps.Images == nil {
		return []string{constants.PlaceholderImageURL}
	}
	ctx = common.WithAction(ctx, "generate-image")
	return g.deps.Images.Acquire(ctx, part, h)
}
