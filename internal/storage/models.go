package storage

import "database/sql"

type Run struct {
	ID         int64
	RunID      string
	Pipeline   string
	StartedAt  string
	FinishedAt string
	Rows       int64
	Outputs    string
}

type MonthlyValue struct {
	RunID  string
	Period string
	Value  sql.NullFloat64
}

type FinalChange struct {
	RunID       string
	Position    int64
	Name        string
	Change      float64
	IsAggregate bool
}
