package storage

import (
	"context"
	"fmt"

	"modelrouter/internal/benchmark"
)

// benchmarkSchema is applied at startup. Kept additive so existing data
// survives upgrades.
const benchmarkSchema = `
CREATE TABLE IF NOT EXISTS benchmark_records (
	id          BIGSERIAL PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	request_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	workflow    TEXT NOT NULL DEFAULT '',
	step_index  INT NOT NULL DEFAULT 0,
	model       TEXT NOT NULL,
	prompt      TEXT NOT NULL DEFAULT '',
	latency_ms  BIGINT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_benchmark_records_created_at
	ON benchmark_records (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_benchmark_records_model
	ON benchmark_records (model);
`

// BenchmarkRepository persists benchmark records drained from the Redis
// buffer. It implements benchmark.Writer.
type BenchmarkRepository struct {
	db *DB
}

// NewBenchmarkRepository creates a repository.
func NewBenchmarkRepository(db *DB) *BenchmarkRepository {
	return &BenchmarkRepository{db: db}
}

// EnsureSchema creates the benchmark table and indexes if missing.
func (r *BenchmarkRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.conn.ExecContext(ctx, benchmarkSchema); err != nil {
		return fmt.Errorf("ensure benchmark schema: %w", err)
	}
	return nil
}

// WriteBatch inserts a batch of records in one statement.
func (r *BenchmarkRepository) WriteBatch(ctx context.Context, records []*benchmark.Record) error {
	if len(records) == 0 {
		return nil
	}

	const query = `
		INSERT INTO benchmark_records
			(created_at, request_id, kind, workflow, step_index, model, prompt, latency_ms, error)
		VALUES
			(:created_at, :request_id, :kind, :workflow, :step_index, :model, :prompt, :latency_ms, :error)`

	if _, err := r.db.conn.NamedExecContext(ctx, query, records); err != nil {
		return fmt.Errorf("insert benchmark records: %w", err)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (r *BenchmarkRepository) Recent(ctx context.Context, limit int) ([]benchmark.Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	const query = `
		SELECT created_at, request_id, kind, workflow, step_index, model, prompt, latency_ms, error
		FROM benchmark_records
		ORDER BY created_at DESC
		LIMIT $1`

	var records []benchmark.Record
	if err := r.db.conn.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("select benchmark records: %w", err)
	}
	return records, nil
}
