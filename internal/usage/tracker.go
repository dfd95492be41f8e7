package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/partsynth/internal/async"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/llm"
	"github.com/joseph-ayodele/partsynth/internal/metrics"
)

// Sink persists usage events.
type Sink interface {
	RecordUsage(ctx context.Context, ev entity.UsageEvent) error
}

// Tracker turns completion usage into events and hands them to a Sink asynchronously.
// Notify is best-effort: it never blocks and never reports failure to the caller.
type Tracker struct {
	sink  Sink
	queue *async.Queue[entity.UsageEvent]
	log   *slog.Logger
	now   func() time.Time
}

func NewTracker(sink Sink, logger *slog.Logger, opts ...async.Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{sink: sink, log: logger, now: time.Now}
	t.queue = async.NewQueue("usage", t.record, logger, opts...)
	return t
}

func (t *Tracker) record(ctx context.Context, ev entity.UsageEvent) error {
	if err := t.sink.RecordUsage(ctx, ev); err != nil {
		metrics.UsageEventsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.UsageEventsTotal.WithLabelValues("recorded").Inc()
	t.log.Debug("usage.recorded",
		"id", ev.ID,
		"action", ev.Action,
		"model", ev.Model,
		"total_tokens", ev.TotalTokens,
		"cost_usd", ev.CostUSD,
	)
	return nil
}

// Notify queues one usage event. User id and action are read from ctx.
func (t *Tracker) Notify(ctx context.Context, model string, u *llm.Usage) {
	if t == nil || u == nil {
		return
	}
	ev := entity.UsageEvent{
		ID:               uuid.New().String(),
		UserID:           common.UserIDFromContext(ctx),
		Action:           common.ActionFromContext(ctx),
		Model:            model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		CostUSD:          Cost(model, u.PromptTokens, u.CompletionTokens),
		CreatedAt:        t.now().UTC(),
	}
	if ev.TotalTokens == 0 {
		ev.TotalTokens = ev.PromptTokens + ev.CompletionTokens
	}
	if !t.queue.Enqueue(ev) {
		metrics.UsageEventsTotal.WithLabelValues("dropped").Inc()
		t.log.Warn("usage.dropped", "action", ev.Action, "model", model)
	}
}

// Shutdown drains pending events or gives up when ctx ends.
func (t *Tracker) Shutdown(ctx context.Context) {
	if t == nil {
		return
	}
	t.queue.Shutdown(ctx)
}
