package backend

import (
	"context"

	"bankgold/internal/services"
	"bankgold/internal/sheets"
)

// Backend reads input sheets and writes output tables.
type Backend interface {
	sheets.SheetReader
	sheets.TableWriter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the optional result sinks
// and a cleanup function releasing all of them. Runs is set with Store and
// Subscriber with Publisher.
type BackendResult struct {
	Backend    Backend
	Store      services.ResultStore
	Runs       services.RunLookup
	Publisher  services.RunPublisher
	Subscriber services.RunSubscriber
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
