package sheets

import (
	"context"
	"path/filepath"
	"strings"

	"bankgold/internal/core"
)

// Ref locates one sheet of tabular data. Source is a file path or a
// spreadsheet ID; Sheet names a tab and may be empty for single-sheet sources.
type Ref struct {
	Source string
	Sheet  string
}

func (r Ref) String() string {
	if r.Sheet == "" {
		return r.Source
	}
	return r.Source + "#" + r.Sheet
}

// Ext returns the lower-cased extension of a file source.
func (r Ref) Ext() string {
	return strings.ToLower(filepath.Ext(r.Source))
}

// Ports for inbound and outbound adapters.
type (
	// SheetReader loads a whole sheet. Missing sources, sheets or tabs are
	// reported as *core.MissingInputError.
	SheetReader interface {
		ReadSheet(ctx context.Context, ref Ref) (core.Table, error)
	}

	// TableWriter persists a table under the given destination.
	TableWriter interface {
		WriteTable(ctx context.Context, dest string, t core.Table) error
	}
)
