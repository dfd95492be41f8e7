package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/llm"
	"github.com/joseph-ayodele/partsynth/internal/metrics"
	"github.com/joseph-ayodele/partsynth/internal/sources"
)

// DefaultConcurrency bounds how many batch items run at once.
const DefaultConcurrency = 3

// Config holds generator behaviour. It is injected at construction and never read from the environment.
type Config struct {
	Concurrency      int
	ItemTimeout      time.Duration
	Prompt           llm.PromptOptions
	DebugAnnotations bool
}

// Translator fills secondary-language fields.
type Translator interface {
	Translate(ctx context.Context, fields map[string]string) (map[string]string, error)
}

// ImageAcquirer produces a best-effort image list.
type ImageAcquirer interface {
	Acquire(ctx context.Context, part string, h images.Hints) []string
}

// SourceProvider turns caller-supplied URLs into source documents.
type SourceProvider interface {
	Collect(ctx context.Context, part string, urls []string) []entity.SourceDocument
}

// Deps are the collaborators of a Generator. Nil Translator, Images or Sources disable that step.
type Deps struct {
	Completer  llm.Completer
	Translator Translator
	Images     ImageAcquirer
	Sources    SourceProvider
	// Detail serves detailed spec reports; Completer is used when nil.
	Detail llm.Completer
}

// Options tune a single Generate or GenerateBatch call.
type Options struct {
	WithImage  bool
	SourceURLs []string
	// Progress is called once per finished item. Calls are serialized.
	Progress func(done, total int, rec entity.PartRecord)
}

// Generator synthesizes part records.
type Generator struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
}

func NewGenerator(cfg Config, deps Deps, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if deps.Detail == nil {
		deps.Detail = deps.Completer
	}
	return &Generator{cfg: cfg, deps: deps, logger: logger}
}

// Generate produces one record. It never fails: errors become the fallback record.
func (g *Generator) Generate(ctx context.Context, part string, opts Options) entity.PartRecord {
	return g.generate(ctx, part, opts).Record
}

// generate runs one item under its own deadline and converts panics and errors into a fallback record.
func (g *Generator) generate(ctx context.Context, part string, opts Options) (res Result) {
	start := time.Now()
	ctx, cancel := common.WithTimeout(ctx, g.cfg.ItemTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", common.ErrBatchItem, r)
			g.logger.Error("pipeline.item.panic", "part", part, "panic", r, "stack", string(debug.Stack()))
			res = g.fallback(part, StageItem, err)
		}
		outcome := "ok"
		if res.Fallback() {
			outcome = "fallback"
		}
		metrics.RecordsTotal.WithLabelValues(string(res.Record.SourceConfidence), outcome).Inc()
		metrics.RecordDuration.Observe(time.Since(start).Seconds())
		g.logger.Info("pipeline.item.done",
			"part", part,
			"outcome", outcome,
			"confidence", res.Record.SourceConfidence,
			"degraded", res.Diagnostic.Degraded,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}()

	return g.run(ctx, part, opts)
}

func (g *Generator) run(ctx context.Context, part string, opts Options) Result {
	g.logger.Info("pipeline.item.start", "part", part, "with_image", opts.WithImage, "source_urls", len(opts.SourceURLs))

	if g.deps.Completer == nil {
		return g.fallback(part, StageCompletion, common.ConfigurationError("completion service is not configured"))
	}

	docs := g.collectSources(ctx, part, opts.SourceURLs)
	req := llm.BuildPartRequest(part, docs, g.cfg.Prompt)

	completion, err := g.deps.Completer.Complete(ctx, req)
	if err != nil {
		return g.fallback(part, StageCompletion, err)
	}

	var diag Diagnostic
	fields := llm.ParsePartFields(completion.Content, g.logger)
	fields, rejected := llm.GuardTradeFields(req.SourceText, fields)
	for _, name := range rejected {
		metrics.GuardRejectionsTotal.WithLabelValues(name).Inc()
		diag.Degraded = append(diag.Degraded, "guard:"+name)
	}
	if len(rejected) > 0 {
		g.logger.Info("pipeline.guard.rejected", "part", part, "fields", rejected)
	}

	var imgs []string
	if opts.WithImage && g.deps.Images != nil {
		imgs = g.deps.Images.Acquire(ctx, part, hintsFor(part, fields, docs))
	}

	translated := map[string]string{}
	if want := translationRequest(fields); len(want) > 0 && g.deps.Translator != nil {
		out, err := g.deps.Translator.Translate(ctx, want)
		if err != nil {
			diag.Degraded = append(diag.Degraded, "translation")
			g.logger.Warn("pipeline.translate.degraded", "part", part, "error", err)
		} else {
			translated = out
		}
	}

	rec := Assemble(AssembleInput{
		Part:       part,
		Fields:     fields,
		Translated: translated,
		Images:     imgs,
		Sources:    docs,
		SourceText: req.SourceText,
		Usage:      completion.Usage,
		Model:      completion.Model,
	})
	return Result{Record: rec, Diagnostic: diag}
}

func (g *Generator) collectSources(ctx context.Context, part string, urls []string) []entity.SourceDocument {
	if g.deps.Sources == nil {
		return []entity.SourceDocument{sources.Placeholder(part)}
	}
	docs := g.deps.Sources.Collect(ctx, part, urls)
	if len(docs) == 0 {
		return []entity.SourceDocument{sources.Placeholder(part)}
	}
	return docs
}

func (g *Generator) fallback(part, stage string, err error) Result {
	level := slog.LevelWarn
	if errors.Is(err, common.ErrConfiguration) {
		level = slog.LevelError
	}
	g.logger.Log(context.Background(), level, "pipeline.item.fallback", "part", part, "stage", stage, "error", err)
	return Result{
		Record:     FallbackRecord(part, err, g.cfg.DebugAnnotations),
		Diagnostic: Diagnostic{Stage: stage, Err: err},
	}
}

// hintsFor derives image hints from the guarded fields and the real source pages.
func hintsFor(part string, f llm.PartFields, docs []entity.SourceDocument) images.Hints {
	h := images.Hints{
		DisplayName: DisplayName(part, f),
		CommonName:  f.CommonNameEN,
		Material:    f.MaterialEN,
	}
	var pages []string
	for _, d := range docs {
		if d.Placeholder {
			continue
		}
		h.PageCandidates = append(h.PageCandidates, d.ImageURLs...)
		if d.URL != "" {
			pages = append(pages, d.URL)
		}
	}
	h.AllowedHosts = images.HostsOf(pages)
	return h
}
