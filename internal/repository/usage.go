package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/partsynth/internal/entity"
)

const usageTable = "usage_events"

// UsageRepository is the append-only token usage ledger.
type UsageRepository interface {
	Migrate(ctx context.Context) error
	RecordUsage(ctx context.Context, ev entity.UsageEvent) error
	Totals(ctx context.Context, since time.Time) (entity.UsageTotals, error)
}

type usageRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUsageRepository(db *DB, logger *slog.Logger) UsageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &usageRepository{db: db, logger: logger}
}

// Migrate creates the ledger table. created_at is stored as unix milliseconds so both dialects compare it numerically.
func (r *usageRepository) Migrate(ctx context.Context) error {
	costType := "DOUBLE PRECISION"
	if r.db.Dialect == dialect.SQLite {
		costType = "REAL"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + usageTable + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			model TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			cost_usd ` + costType + ` NOT NULL,
			created_at_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS usage_events_created_at_idx ON ` + usageTable + ` (created_at_ms)`,
	}
	for _, s := range stmts {
		if err := r.db.Driver.Exec(ctx, s, []any{}, nil); err != nil {
			r.logger.Error("usage.migrate.error", "error", err)
			return fmt.Errorf("migrate usage ledger: %w", err)
		}
	}
	return nil
}

func (r *usageRepository) RecordUsage(ctx context.Context, ev entity.UsageEvent) error {
	query, args := entsql.Dialect(r.db.Dialect).
		Insert(usageTable).
		Columns("id", "user_id", "action", "model", "prompt_tokens", "completion_tokens", "total_tokens", "cost_usd", "created_at_ms").
		Values(ev.ID, ev.UserID, ev.Action, ev.Model, ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens, ev.CostUSD, ev.CreatedAt.UnixMilli()).
		Query()
	if err := r.db.Driver.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("usage.insert.error", "id", ev.ID, "error", err)
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// Totals aggregates every event at or after since. A zero since covers the whole ledger.
func (r *usageRepository) Totals(ctx context.Context, since time.Time) (entity.UsageTotals, error) {
	out := entity.UsageTotals{Since: since, ByModel: []entity.ModelUsage{}}
	sinceMs := int64(0)
	if !since.IsZero() {
		sinceMs = since.UnixMilli()
	}

	query, args := entsql.Dialect(r.db.Dialect).
		Select(
			entsql.Count("*"),
			"COALESCE(SUM(prompt_tokens), 0)",
			"COALESCE(SUM(completion_tokens), 0)",
			"COALESCE(SUM(total_tokens), 0)",
			"COALESCE(SUM(cost_usd), 0)",
		).
		From(entsql.Table(usageTable)).
		Where(entsql.GTE("created_at_ms", sinceMs)).
		Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return out, fmt.Errorf("query usage totals: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&out.Requests, &out.PromptTokens, &out.CompletionTokens, &out.TotalTokens, &out.CostUSD); err != nil {
			_ = rows.Close()
			return out, fmt.Errorf("scan usage totals: %w", err)
		}
	}
	if err := rows.Close(); err != nil {
		return out, err
	}

	query, args = entsql.Dialect(r.db.Dialect).
		Select(
			"model",
			entsql.Count("*"),
			"COALESCE(SUM(total_tokens), 0)",
			"COALESCE(SUM(cost_usd), 0)",
		).
		From(entsql.Table(usageTable)).
		Where(entsql.GTE("created_at_ms", sinceMs)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows = &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return out, fmt.Errorf("query usage by model: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var m entity.ModelUsage
		if err := rows.Scan(&m.Model, &m.Requests, &m.TotalTokens, &m.CostUSD); err != nil {
			return out, fmt.Errorf("scan usage by model: %w", err)
		}
		out.ByModel = append(out.ByModel, m)
	}
	return out, rows.Err()
}
