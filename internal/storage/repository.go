package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bankgold/internal/core"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = core.ErrRunNotFound

const timeLayout = time.RFC3339Nano

// SQLiteRepository is the run ledger backed by a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens the database at dbPath, creating its directory
// and applying pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveMonthlySeries stores run and its distributed monthly bankruptcy values
// in one transaction. The values are those before the price merge, so months
// without a price row are kept.
func (r *SQLiteRepository) SaveMonthlySeries(ctx context.Context, run core.Run, points []core.SeriesPoint) error {
	return r.inTx(ctx, func(q *Queries) error {
		if _, err := q.CreateRun(ctx, runParams(run)); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		for _, p := range points {
			value := sql.NullFloat64{}
			if p.Value != nil {
				value = sql.NullFloat64{Float64: *p.Value, Valid: true}
			}
			if err := q.CreateMonthlyValue(ctx, CreateMonthlyValueParams{
				RunID:  run.ID,
				Period: p.Period.String(),
				Value:  value,
			}); err != nil {
				return fmt.Errorf("create monthly value %s: %w", p.Period, err)
			}
		}
		slog.InfoContext(ctx, "Monthly series saved to SQLite", "run_id", run.ID, "points", len(points))
		return nil
	})
}

// SaveFinalChanges stores run and its per-country final changes, keeping
// their order.
func (r *SQLiteRepository) SaveFinalChanges(ctx context.Context, run core.Run, changes []core.ChangeRecord) error {
	return r.inTx(ctx, func(q *Queries) error {
		if _, err := q.CreateRun(ctx, runParams(run)); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		for i, c := range changes {
			if err := q.CreateFinalChange(ctx, CreateFinalChangeParams{
				RunID:       run.ID,
				Position:    int64(i),
				Name:        c.Name,
				Change:      c.Change,
				IsAggregate: c.Aggregate,
			}); err != nil {
				return fmt.Errorf("create final change %s: %w", c.Name, err)
			}
		}
		slog.InfoContext(ctx, "Final changes saved to SQLite", "run_id", run.ID, "countries", len(changes))
		return nil
	})
}

// GetRun returns the run with runID, or an error wrapping ErrRunNotFound.
func (r *SQLiteRepository) GetRun(ctx context.Context, runID string) (core.Run, error) {
	row, err := r.queries.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return core.Run{}, fmt.Errorf("get run: %w", err)
	}
	return toCoreRun(row)
}

// LatestRuns returns up to limit runs of pipeline, newest first.
func (r *SQLiteRepository) LatestRuns(ctx context.Context, pipeline string, limit int) ([]core.Run, error) {
	rows, err := r.queries.ListRuns(ctx, ListRunsParams{Pipeline: pipeline, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]core.Run, 0, len(rows))
	for _, row := range rows {
		run, err := toCoreRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// MonthlySeries returns the stored monthly values of runID in period order.
func (r *SQLiteRepository) MonthlySeries(ctx context.Context, runID string) ([]core.SeriesPoint, error) {
	rows, err := r.queries.ListMonthlyValues(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list monthly values: %w", err)
	}
	points := make([]core.SeriesPoint, 0, len(rows))
	for _, row := range rows {
		period, err := core.ParsePeriod(row.Period)
		if err != nil {
			return nil, fmt.Errorf("stored period %q: %w", row.Period, err)
		}
		p := core.SeriesPoint{Period: period}
		if row.Value.Valid {
			p.Value = core.Float(row.Value.Float64)
		}
		points = append(points, p)
	}
	return points, nil
}

// FinalChanges returns the stored final changes of runID in their saved
// order.
func (r *SQLiteRepository) FinalChanges(ctx context.Context, runID string) ([]core.ChangeRecord, error) {
	rows, err := r.queries.ListFinalChanges(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list final changes: %w", err)
	}
	changes := make([]core.ChangeRecord, 0, len(rows))
	for _, row := range rows {
		changes = append(changes, core.ChangeRecord{Name: row.Name, Change: row.Change, Aggregate: row.IsAggregate})
	}
	return changes, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func runParams(run core.Run) CreateRunParams {
	return CreateRunParams{
		RunID:      run.ID,
		Pipeline:   run.Pipeline,
		StartedAt:  run.StartedAt.UTC().Format(timeLayout),
		FinishedAt: run.FinishedAt.UTC().Format(timeLayout),
		Rows:       int64(run.Rows),
		Outputs:    strings.Join(run.Outputs, "\n"),
	}
}

func toCoreRun(row Run) (core.Run, error) {
	started, err := time.Parse(timeLayout, row.StartedAt)
	if err != nil {
		return core.Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	finished, err := time.Parse(timeLayout, row.FinishedAt)
	if err != nil {
		return core.Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	var outputs []string
	if row.Outputs != "" {
		outputs = strings.Split(row.Outputs, "\n")
	}
	return core.Run{
		ID:         row.RunID,
		Pipeline:   row.Pipeline,
		StartedAt:  started,
		FinishedAt: finished,
		Rows:       int(row.Rows),
		Outputs:    outputs,
	}, nil
}
