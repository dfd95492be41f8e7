package images

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/metrics"
)

// DefaultSearchCount is how many search results are requested; only the first usable one is kept.
const DefaultSearchCount = 3

type configurable interface {
	Configured() bool
}

// Acquirer produces an ordered, best-effort image list for a part.
// Order: first search hit, ranked page candidates, synthesized image. Empty -> one placeholder.
type Acquirer struct {
	search      Searcher
	synth       Synthesizer
	mirror      Mirrorer
	searchCount int
	pageLimit   int
	log         *slog.Logger
}

type AcquirerOption func(*Acquirer)

func WithSearcher(s Searcher) AcquirerOption {
	return func(a *Acquirer) { a.search = s }
}

func WithSynthesizer(s Synthesizer) AcquirerOption {
	return func(a *Acquirer) { a.synth = s }
}

func WithMirror(m Mirrorer) AcquirerOption {
	return func(a *Acquirer) { a.mirror = m }
}

func WithSearchCount(n int) AcquirerOption {
	return func(a *Acquirer) {
		if n > 0 {
			a.searchCount = n
		}
	}
}

func WithPageLimit(n int) AcquirerOption {
	return func(a *Acquirer) {
		if n > 0 {
			a.pageLimit = n
		}
	}
}

func NewAcquirer(logger *slog.Logger, opts ...AcquirerOption) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Acquirer{
		searchCount: DefaultSearchCount,
		pageLimit:   DefaultPickLimit,
		log:         logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire never fails. Every step logs and continues on error.
func (a *Acquirer) Acquire(ctx context.Context, part string, h Hints) []string {
	start := time.Now()
	out := make([]string, 0, 2+a.pageLimit)
	seen := make(map[string]struct{})
	push := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	push(a.searchStep(ctx, part))

	if len(h.PageCandidates) > 0 {
		picked := PickRepresentative(h.PageCandidates, h.AllowedHosts, a.pageLimit)
		metrics.ImageStepsTotal.WithLabelValues("page", outcomeOf(len(picked) > 0)).Inc()
		for _, u := range picked {
			push(u)
		}
	}

	push(a.synthesisStep(ctx, part, h))

	if len(out) == 0 {
		a.log.Info("images.acquire.placeholder", "part", part)
		return []string{constants.PlaceholderImageURL}
	}
	a.log.Info("images.acquire.ok",
		"part", part,
		"count", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (a *Acquirer) searchStep(ctx context.Context, part string) string {
	if !enabled(a.search) {
		metrics.ImageStepsTotal.WithLabelValues("search", "skipped").Inc()
		return ""
	}
	urls, err := a.search.Search(ctx, part, a.searchCount)
	if err != nil {
		metrics.ImageStepsTotal.WithLabelValues("search", "error").Inc()
		a.log.Warn("images.search.error", "part", part, "error", err)
		return ""
	}
	first := FirstHTTPURL(urls)
	metrics.ImageStepsTotal.WithLabelValues("search", outcomeOf(first != "")).Inc()
	return first
}

func (a *Acquirer) synthesisStep(ctx context.Context, part string, h Hints) string {
	if !enabled(a.synth) {
		metrics.ImageStepsTotal.WithLabelValues("synthesis", "skipped").Inc()
		return ""
	}
	u, err := a.synth.Synthesize(ctx, BuildSynthesisPrompt(part, h))
	if err != nil {
		metrics.ImageStepsTotal.WithLabelValues("synthesis", "error").Inc()
		a.log.Warn("images.synthesize.error", "part", part, "error", err)
		return ""
	}
	metrics.ImageStepsTotal.WithLabelValues("synthesis", outcomeOf(u != "")).Inc()
	if u == "" || a.mirror == nil {
		return u
	}

	mirrored, err := a.mirror.Mirror(ctx, part, u)
	if err != nil {
		// the upstream URL still works for a while; keep it
		metrics.ImageStepsTotal.WithLabelValues("mirror", "error").Inc()
		a.log.Warn("images.mirror.error", "part", part, "error", err)
		return u
	}
	metrics.ImageStepsTotal.WithLabelValues("mirror", "ok").Inc()
	return mirrored
}

// enabled treats nil as disabled and honours an optional Configured() method.
func enabled(v any) bool {
	if v == nil {
		return false
	}
	if c, ok := v.(configurable); ok {
		return c.Configured()
	}
	return true
}

func outcomeOf(ok bool) string {
	if ok {
		return "ok"
	}
	return "empty"
}
