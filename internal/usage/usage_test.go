package usage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/partsynth/internal/async"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/llm"
)

type memSink struct {
	mu     sync.Mutex
	events []entity.UsageEvent
	err    error
}

func (m *memSink) RecordUsage(_ context.Context, ev entity.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

type stubCompleter struct {
	res llm.Completion
	err error
}

func (s stubCompleter) Complete(context.Context, llm.CompletionRequest) (llm.Completion, error) {
	return s.res, s.err
}

func TestPriceFor(t *testing.T) {
	assert.Equal(t, Price{Input: 0.15, Output: 0.60}, PriceFor("gpt-4o-mini"))
	assert.Equal(t, Price{Input: 0.15, Output: 0.60}, PriceFor("gpt-4o-mini-2024-07-18"))
	assert.Equal(t, Price{Input: 5, Output: 15}, PriceFor("GPT-4o"))
	assert.Equal(t, Pricing[DefaultPricingModel], PriceFor("some-other-model"))
}

func TestCost(t *testing.T) {
	assert.InDelta(t, 2.0, Cost("gpt-3.5-turbo", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.000075+0.00003, Cost("gpt-4o-mini", 500, 50), 1e-12)
}

func TestTracker_NotifyRecordsEvent(t *testing.T) {
	sink := &memSink{}
	tr := NewTracker(sink, nil, async.WithQueueSize(4))

	ctx := common.WithAction(common.WithUserID(context.Background(), "u-1"), "batch-generate")
	tr.Notify(ctx, "gpt-4o", &llm.Usage{PromptTokens: 100, CompletionTokens: 20})
	tr.Notify(ctx, "gpt-4o", nil)
	tr.Shutdown(context.Background())

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "u-1", ev.UserID)
	assert.Equal(t, "batch-generate", ev.Action)
	assert.Equal(t, "gpt-4o", ev.Model)
	assert.Equal(t, 120, ev.TotalTokens)
	assert.InDelta(t, Cost("gpt-4o", 100, 20), ev.CostUSD, 1e-12)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestTracker_SinkFailureIsSwallowed(t *testing.T) {
	sink := &memSink{err: errors.New("db down")}
	tr := NewTracker(sink, nil)

	assert.NotPanics(t, func() {
		tr.Notify(context.Background(), "gpt-4o", &llm.Usage{TotalTokens: 1})
		tr.Shutdown(context.Background())
	})
	assert.Empty(t, sink.events)
}

func TestTracker_NilIsNoop(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.Notify(context.Background(), "m", &llm.Usage{})
		tr.Shutdown(context.Background())
	})
}

func TestRecordingCompleter(t *testing.T) {
	sink := &memSink{}
	tr := NewTracker(sink, nil)
	rc := NewRecordingCompleter(stubCompleter{res: llm.Completion{Content: "{}", Model: "gpt-4o-mini", Usage: &llm.Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}}}, tr, "part")

	res, err := rc.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "{}", res.Content)

	_, err = NewRecordingCompleter(stubCompleter{err: errors.New("x")}, tr, "part").Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)

	tr.Shutdown(context.Background())
	require.Len(t, sink.events, 1)
	assert.Equal(t, "generate", sink.events[0].Action)
	assert.Equal(t, 7, sink.events[0].TotalTokens)
}
