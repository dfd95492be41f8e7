package usage

import (
	"context"

	"github.com/joseph-ayodele/partsynth/internal/llm"
	"github.com/joseph-ayodele/partsynth/internal/metrics"
)

// RecordingCompleter decorates a Completer with metrics and usage notifications.
type RecordingCompleter struct {
	next    llm.Completer
	tracker *Tracker // optional
	kind    string
}

var _ llm.Completer = (*RecordingCompleter)(nil)

// NewRecordingCompleter labels calls with kind (part, translate, detail). tracker may be nil.
func NewRecordingCompleter(next llm.Completer, tracker *Tracker, kind string) *RecordingCompleter {
	return &RecordingCompleter{next: next, tracker: tracker, kind: kind}
}

func (r *RecordingCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	res, err := r.next.Complete(ctx, req)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(r.kind, "error").Inc()
		return res, err
	}
	metrics.CompletionsTotal.WithLabelValues(r.kind, "ok").Inc()
	if res.Usage != nil {
		metrics.TokensTotal.WithLabelValues(res.Model, "prompt").Add(float64(res.Usage.PromptTokens))
		metrics.TokensTotal.WithLabelValues(res.Model, "completion").Add(float64(res.Usage.CompletionTokens))
	}
	r.tracker.Notify(ctx, res.Model, res.Usage)
	return res, nil
}
