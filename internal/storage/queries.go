package storage

import (
	"context"
	"database/sql"
)

const createRun = `
INSERT INTO runs (run_id, pipeline, started_at, finished_at, row_count, outputs)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, run_id, pipeline, started_at, finished_at, row_count, outputs
`

type CreateRunParams struct {
	RunID      string
	Pipeline   string
	StartedAt  string
	FinishedAt string
	Rows       int64
	Outputs    string
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (Run, error) {
	row := q.db.QueryRowContext(ctx, createRun,
		arg.RunID,
		arg.Pipeline,
		arg.StartedAt,
		arg.FinishedAt,
		arg.Rows,
		arg.Outputs,
	)
	var i Run
	err := row.Scan(&i.ID, &i.RunID, &i.Pipeline, &i.StartedAt, &i.FinishedAt, &i.Rows, &i.Outputs)
	return i, err
}

const getRun = `
SELECT id, run_id, pipeline, started_at, finished_at, row_count, outputs
FROM runs
WHERE run_id = ?
`

func (q *Queries) GetRun(ctx context.Context, runID string) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, runID)
	var i Run
	err := row.Scan(&i.ID, &i.RunID, &i.Pipeline, &i.StartedAt, &i.FinishedAt, &i.Rows, &i.Outputs)
	return i, err
}

const listRuns = `
SELECT id, run_id, pipeline, started_at, finished_at, row_count, outputs
FROM runs
WHERE pipeline = ?
ORDER BY id DESC
LIMIT ?
`

type ListRunsParams struct {
	Pipeline string
	Limit    int64
}

func (q *Queries) ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, arg.Pipeline, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(&i.ID, &i.RunID, &i.Pipeline, &i.StartedAt, &i.FinishedAt, &i.Rows, &i.Outputs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMonthlyValue = `
INSERT INTO monthly_values (run_id, period, value)
VALUES (?, ?, ?)
ON CONFLICT (run_id, period) DO UPDATE SET value = excluded.value
`

type CreateMonthlyValueParams struct {
	RunID  string
	Period string
	Value  sql.NullFloat64
}

func (q *Queries) CreateMonthlyValue(ctx context.Context, arg CreateMonthlyValueParams) error {
	_, err := q.db.ExecContext(ctx, createMonthlyValue, arg.RunID, arg.Period, arg.Value)
	return err
}

const listMonthlyValues = `
SELECT run_id, period, value
FROM monthly_values
WHERE run_id = ?
ORDER BY period
`

func (q *Queries) ListMonthlyValues(ctx context.Context, runID string) ([]MonthlyValue, error) {
	rows, err := q.db.QueryContext(ctx, listMonthlyValues, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyValue
	for rows.Next() {
		var i MonthlyValue
		if err := rows.Scan(&i.RunID, &i.Period, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createFinalChange = `
INSERT INTO final_changes (run_id, position, name, change, is_aggregate)
VALUES (?, ?, ?, ?, ?)
`

type CreateFinalChangeParams struct {
	RunID       string
	Position    int64
	Name        string
	Change      float64
	IsAggregate bool
}

func (q *Queries) CreateFinalChange(ctx context.Context, arg CreateFinalChangeParams) error {
	_, err := q.db.ExecContext(ctx, createFinalChange,
		arg.RunID,
		arg.Position,
		arg.Name,
		arg.Change,
		arg.IsAggregate,
	)
	return err
}

const listFinalChanges = `
SELECT run_id, position, name, change, is_aggregate
FROM final_changes
WHERE run_id = ?
ORDER BY position
`

func (q *Queries) ListFinalChanges(ctx context.Context, runID string) ([]FinalChange, error) {
	rows, err := q.db.QueryContext(ctx, listFinalChanges, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinalChange
	for rows.Next() {
		var i FinalChange
		if err := rows.Scan(&i.RunID, &i.Position, &i.Name, &i.Change, &i.IsAggregate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
