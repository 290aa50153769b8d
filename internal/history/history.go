// internal/history/history.go
// Package: history
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Store archives finished benchmark runs. It is write-only from the point of
// view of a benchmark: nothing in it influences later runs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run describes one archived benchmark run.
type Run struct {
	ID         string
	HostName   string
	HostURL    string
	JudgeModel string
	Repeat     int
	System     probe.SystemInfo
	StartedAt  time.Time
	// FinishedAt is zero for a run that never finished.
	FinishedAt time.Time
	Samples    int
}

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a run and returns a Recorder for its samples.
func (s *Store) BeginRun(ctx context.Context, cfg *config.Config, info probe.SystemInfo) (*Recorder, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, host_name, host_url, judge_model, repeat, cpu, ram_gb, platform, cores, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.Host.Name, cfg.Host.URL, cfg.JudgeModel, cfg.Repeat,
		info.CPU, info.RAMTotalGB, info.Platform, info.PhysicalCores, s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return &Recorder{store: s, ctx: ctx, ID: id}, nil
}

// Recorder appends one run's samples and ranking. It implements benchmark.Sink.
type Recorder struct {
	ID    string
	store *Store
	ctx   context.Context
	seq   int
}

// Write archives one sample.
func (r *Recorder) Write(smp benchmark.Sample) error {
	r.seq++
	quality, ok := smp.Quality.Value()
	_, err := r.store.db.ExecContext(r.ctx, `
		INSERT INTO samples (run_id, seq, model, prompt, tokens, total_s, latency_ms, tps, load_s,
			ram_delta_gb, cpu_delta, temperature, power, quantized, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.seq, smp.Model, smp.Prompt, smp.TokensGenerated, smp.TotalTimeSec, smp.LatencyMS,
		smp.TokensPerSec, smp.LoadTimeSec, smp.RAMDeltaGB, smp.CPUDelta,
		nullable(smp.Temperature.Value, smp.Temperature.Valid),
		nullable(smp.Power.Value, smp.Power.Valid),
		smp.Quantized,
		nullable(quality, ok),
	)
	if err != nil {
		return fmt.Errorf("archive sample: %w", err)
	}
	return nil
}

// RecordRanking stores the final ranking of the run.
func (r *Recorder) RecordRanking(ctx context.Context, ranked []ranking.ModelSummary) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range ranked {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rankings (run_id, rank, model, quality, tps, latency_ms, quantized, score, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, m.Rank, m.Model, m.MeanQuality, m.TokensPerSec, m.LatencyMS, m.Quantized, m.Score, m.Samples,
		)
		if err != nil {
			return fmt.Errorf("archive ranking: %w", err)
		}
	}
	return tx.Commit()
}

// Finish stamps the run as finished.
func (r *Recorder) Finish(ctx context.Context) error {
	_, err := r.store.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, r.store.now().UnixNano(), r.ID)
	return err
}

const runColumns = `r.id, r.host_name, r.host_url, r.judge_model, r.repeat, r.cpu, r.ram_gb, r.platform, r.cores,
	r.started_at, r.finished_at, (SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.HostName, &run.HostURL, &run.JudgeModel, &run.Repeat,
		&run.System.CPU, &run.System.RAMTotalGB, &run.System.Platform, &run.System.PhysicalCores,
		&started, &finished, &run.Samples)
	if err != nil {
		return run, err
	}
	run.StartedAt = time.Unix(0, started)
	if finished.Valid {
		run.FinishedAt = time.Unix(0, finished.Int64)
	}
	return run, nil
}

// Runs lists archived runs, newest first. limit <= 0 lists all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs r ORDER BY r.started_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Run loads one run by id. A unique id prefix is accepted.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id LIKE ? || '%' LIMIT 2`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// Samples returns a run's samples in the order they were recorded.
func (s *Store) Samples(ctx context.Context, runID string) ([]benchmark.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, prompt, tokens, total_s, latency_ms, tps, load_s, ram_delta_gb, cpu_delta,
			temperature, power, quantized, quality
		FROM samples WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []benchmark.Sample
	for rows.Next() {
		var (
			smp                  benchmark.Sample
			temp, power, quality sql.NullFloat64
		)
		err := rows.Scan(&smp.Model, &smp.Prompt, &smp.TokensGenerated, &smp.TotalTimeSec, &smp.LatencyMS,
			&smp.TokensPerSec, &smp.LoadTimeSec, &smp.RAMDeltaGB, &smp.CPUDelta,
			&temp, &power, &smp.Quantized, &quality)
		if err != nil {
			return nil, err
		}
		smp.Temperature = measurement(temp)
		smp.Power = measurement(power)
		if quality.Valid {
			smp.Quality = judge.Available(quality.Float64)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Rankings returns a run's ranking in rank order.
func (s *Store) Rankings(ctx context.Context, runID string) ([]ranking.ModelSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, model, quality, tps, latency_ms, quantized, score, samples
		FROM rankings WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ranking.ModelSummary
	for rows.Next() {
		var m ranking.ModelSummary
		if err := rows.Scan(&m.Rank, &m.Model, &m.MeanQuality, &m.TokensPerSec, &m.LatencyMS, &m.Quantized, &m.Score, &m.Samples); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullable(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func measurement(n sql.NullFloat64) probe.Measurement {
	if !n.Valid {
		return probe.Absent
	}
	return probe.Some(n.Float64)
}
