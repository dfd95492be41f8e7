package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/partsynth/internal/async"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/llm"
	"github.com/joseph-ayodele/partsynth/internal/llm/openai"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
	"github.com/joseph-ayodele/partsynth/internal/repository"
	"github.com/joseph-ayodele/partsynth/internal/sources"
	"github.com/joseph-ayodele/partsynth/internal/usage"
)

// App holds the wired pipeline and the resources that must be released on exit.
type App struct {
	Generator *pipeline.Generator
	Tracker   *usage.Tracker             // nil when usage tracking is off
	DB        *repository.DB             // nil when usage tracking is off
	Usage     repository.UsageRepository // nil when usage tracking is off

	logger *slog.Logger
}

// NewLogger returns a JSON logger for services or a terse text logger (no time or level) for the CLI.
func NewLogger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	if json {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Build wires every collaborator from cfg. A usage ledger that cannot be opened disables
// tracking with a warning; a missing completion credential only makes every record a fallback.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{logger: logger}

	if cfg.Usage.Enabled {
		a.openUsage(ctx, cfg)
	}

	oa := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
		ImageModel:        cfg.Images.SynthesisModel,
		ImageSize:         cfg.Images.SynthesisSize,
	}, logger)
	if !oa.Configured() {
		logger.Warn("app.llm.unconfigured", "hint", "set OPENAI_API_KEY; records will be fallbacks")
	}

	acqOpts := []images.AcquirerOption{
		images.WithSearcher(images.NewSearchClient(images.SearchConfig{
			URL:       cfg.Images.SearchURL,
			APIKey:    cfg.Images.SearchAPIKey,
			Timeout:   cfg.Images.Timeout,
			CacheSize: cfg.Images.SearchCacheSize,
			CacheTTL:  cfg.Images.SearchCacheTTL,
		}, logger)),
		images.WithSynthesizer(oa),
		images.WithSearchCount(cfg.Images.SearchCount),
		images.WithPageLimit(cfg.Images.PageCandidates),
	}
	if cfg.MirrorEnabled() {
		m, err := images.NewObjectMirror(images.MirrorConfig{
			Endpoint:      cfg.Mirror.Endpoint,
			AccessKey:     cfg.Mirror.AccessKey,
			SecretKey:     cfg.Mirror.SecretKey,
			Bucket:        cfg.Mirror.Bucket,
			UseSSL:        cfg.Mirror.UseSSL,
			PublicBaseURL: cfg.Mirror.PublicBaseURL,
			Timeout:       cfg.Images.Timeout,
		}, logger)
		if err != nil {
			logger.Warn("app.mirror.disabled", "error", err)
		} else {
			acqOpts = append(acqOpts, images.WithMirror(m))
		}
	}

	a.Generator = pipeline.NewGenerator(pipeline.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		ItemTimeout: cfg.Pipeline.ItemTimeout,
		Prompt: llm.PromptOptions{
			SecondaryLanguage: cfg.Pipeline.SecondaryLanguage,
			MaxSourceChars:    cfg.Pipeline.MaxSourceChars,
		},
		DebugAnnotations: cfg.Pipeline.DebugAnnotations,
	}, pipeline.Deps{
		Completer:  usage.NewRecordingCompleter(oa, a.Tracker, "part"),
		Translator: llm.NewTranslator(usage.NewRecordingCompleter(oa, a.Tracker, "translate"), cfg.Pipeline.SecondaryLanguage, logger),
		Images:     images.NewAcquirer(logger, acqOpts...),
		Sources:    sources.NewPageFetcher(cfg.Images.Timeout, logger),
		Detail:     usage.NewRecordingCompleter(oa, a.Tracker, "detail"),
	}, logger)

	return a, nil
}

func (a *App) openUsage(ctx context.Context, cfg *common.Config) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		SQLitePath:       cfg.Database.SQLitePath,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, a.logger)
	if err != nil {
		a.logger.Warn("app.usage.disabled", "error", err)
		return
	}
	repo := repository.NewUsageRepository(db, a.logger)
	if err := repo.Migrate(ctx); err != nil {
		a.logger.Warn("app.usage.disabled", "error", err)
		db.Close()
		return
	}
	a.DB = db
	a.Usage = repo
	a.Tracker = usage.NewTracker(repo, a.logger,
		async.WithWorkers(cfg.Usage.Workers),
		async.WithQueueSize(cfg.Usage.QueueSize),
		async.WithProcessTimeout(10*time.Second),
	)
}

// Close drains pending usage events and closes the ledger.
func (a *App) Close(ctx context.Context) {
	a.Tracker.Shutdown(ctx)
	if a.DB != nil {
		a.DB.Close()
	}
}
