package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletionsTotal counts completion calls by kind (part, translate, detail) and outcome (ok, error).
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_completions_total",
			Help: "Total number of completion calls.",
		},
		[]string{"kind", "outcome"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_tokens_total",
			Help: "Tokens reported by the completion service.",
		},
		[]string{"model", "type"}, // type: prompt, completion
	)

	ImageStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_image_steps_total",
			Help: "Image acquisition steps by outcome.",
		},
		[]string{"step", "outcome"}, // step: search, page, synthesis, mirror
	)

	GuardRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_guard_rejections_total",
			Help: "Trade-compliance values dropped for lack of evidence in the sources.",
		},
		[]string{"field"},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_records_total",
			Help: "Assembled part records by source confidence and outcome.",
		},
		[]string{"confidence", "outcome"}, // outcome: ok, fallback
	)

	RecordDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "partsynth_record_duration_seconds",
			Help:    "Time to produce one part record.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	BatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "partsynth_batch_items_in_flight",
			Help: "Batch items currently being processed.",
		},
	)

	UsageEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_usage_events_total",
			Help: "Usage notifications by outcome (recorded, dropped, failed).",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partsynth_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)
