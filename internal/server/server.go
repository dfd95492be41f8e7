package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/export"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
)

// Generator is the part-record pipeline as seen by the HTTP layer.
type Generator interface {
	Generate(ctx context.Context, part string, opts pipeline.Options) entity.PartRecord
	GenerateBatch(ctx context.Context, parts []string, opts pipeline.Options) []entity.PartRecord
	DetailedSpec(ctx context.Context, rec entity.PartRecord) (string, error)
	Images(ctx context.Context, part string, h images.Hints) []string
}

// UsageReader serves aggregated token usage.
type UsageReader interface {
	Totals(ctx context.Context, since time.Time) (entity.UsageTotals, error)
}

// HealthChecker reports database connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// DefaultRequestTimeout caps the non-generation routes and is the floor of a generation deadline.
const DefaultRequestTimeout = 5 * time.Minute

// Server exposes the pipeline over HTTP.
type Server struct {
	gen            Generator
	usage          UsageReader
	db             HealthChecker
	export         *export.Service
	requestTimeout time.Duration
	concurrency    int
	itemTimeout    time.Duration
	logger         *slog.Logger
}

type Option func(*Server)

func WithUsage(u UsageReader) Option {
	return func(s *Server) { s.usage = u }
}

func WithHealthCheck(h HealthChecker) Option {
	return func(s *Server) { s.db = h }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithGenerationBudget sizes generation deadlines from the batch concurrency and the
// per-item timeout, so a request is never cut short before its items can finish.
func WithGenerationBudget(concurrency int, itemTimeout time.Duration) Option {
	return func(s *Server) {
		s.concurrency = concurrency
		s.itemTimeout = itemTimeout
	}
}

func New(gen Generator, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		gen:            gen,
		export:         export.NewService(logger),
		requestTimeout: DefaultRequestTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestContext)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", s.handleHealth)

	// Generation routes set their own deadline once the batch size is known.
	r.Post("/generate", s.handleGenerate)
	r.Post("/generate.xlsx", s.handleGenerateXLSX)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))
		r.Post("/generate-image", s.handleGenerateImage)
		r.Post("/detailed-spec", s.handleDetailedSpec)
		r.Get("/usage", s.handleUsage)
	})

	return r
}

// generationTimeout is the deadline for generating n records: one per-item timeout for
// every wave of concurrent items plus one wave of slack, never below requestTimeout.
// Zero means no request-level deadline; per-item and per-call timeouts still apply.
func (s *Server) generationTimeout(n int) time.Duration {
	if s.itemTimeout <= 0 {
		return 0
	}
	conc := max(s.concurrency, 1)
	waves := (max(n, 1) + conc - 1) / conc
	return max(s.requestTimeout, time.Duration(waves+1)*s.itemTimeout)
}

// generationContext derives the request context for generating n records.
func (s *Server) generationContext(r *http.Request, n int, action string) (context.Context, context.CancelFunc) {
	ctx := common.WithAction(r.Context(), action)
	return common.WithTimeout(ctx, s.generationTimeout(n))
}
