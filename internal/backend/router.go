package backend

import (
	"context"
	"fmt"
	"strings"

	"bankgold/internal/core"
	"bankgold/internal/sheets"
	"bankgold/internal/sheets/csvfile"
	"bankgold/internal/sheets/xlsx"
)

// FileRouter dispatches reads and writes to the CSV or Excel adapter by
// file extension.
type FileRouter struct {
	CSV  csvfile.Store
	XLSX xlsx.Store
}

var _ Backend = FileRouter{}

func NewFileRouter() FileRouter {
	return FileRouter{CSV: csvfile.New(), XLSX: xlsx.New()}
}

func (r FileRouter) ReadSheet(ctx context.Context, ref sheets.Ref) (core.Table, error) {
	switch ref.Ext() {
	case ".csv", ".txt":
		return r.CSV.ReadSheet(ctx, ref)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return r.XLSX.ReadSheet(ctx, ref)
	default:
		return core.Table{}, fmt.Errorf("unsupported input file type %q for %s", ref.Ext(), ref.Source)
	}
}

func (r FileRouter) WriteTable(ctx context.Context, dest string, t core.Table) error {
	switch ext := (sheets.Ref{Source: dest}).Ext(); ext {
	case ".csv":
		return r.CSV.WriteTable(ctx, dest, t)
	case ".xlsx":
		return r.XLSX.WriteTable(ctx, dest, t)
	default:
		return fmt.Errorf("unsupported output file type %q for %s", ext, dest)
	}
}

// spreadsheetBackend reads tabs of one spreadsheet and writes outputs to
// local files. File paths in refs are ignored; only the tab name matters.
type spreadsheetBackend struct {
	reader sheets.SheetReader
	files  FileRouter
}

func (b spreadsheetBackend) ReadSheet(ctx context.Context, ref sheets.Ref) (core.Table, error) {
	return b.reader.ReadSheet(ctx, sheets.Ref{Sheet: strings.TrimSpace(ref.Sheet)})
}

func (b spreadsheetBackend) WriteTable(ctx context.Context, dest string, t core.Table) error {
	return b.files.WriteTable(ctx, dest, t)
}
