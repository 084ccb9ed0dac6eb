package core

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Pipeline names.
const (
	PipelineBankruptcies = "bankruptcies"
	PipelineGoldReserves = "goldreserves"
)

// Run describes one completed pipeline execution.
type Run struct {
	ID         string
	Pipeline   string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       int
	Outputs    []string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a random 16-hex-digit identifier.
func NewRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UTC().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(b[:])
}

// SeriesPoint is one persisted monthly value; a nil Value is a null cell.
type SeriesPoint struct {
	Period Period
	Value  *float64
}

// ChangeRecord is one persisted final cumulative change.
type ChangeRecord struct {
	Name      string
	Change    float64
	Aggregate bool
}
