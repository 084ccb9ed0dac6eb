// Package csvfile reads and writes comma-separated files.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bankgold/internal/core"
	ports "bankgold/internal/sheets"
)

// Store is a CSV-backed SheetReader and TableWriter. The sheet part of a
// Ref is ignored: a CSV file holds exactly one sheet.
type Store struct{}

var (
	_ ports.SheetReader = Store{}
	_ ports.TableWriter = Store{}
)

func New() Store {
	return Store{}
}

// ReadSheet loads the whole file at ref.Source.
func (Store) ReadSheet(ctx context.Context, ref ports.Ref) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	f, err := os.Open(ref.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Table{}, &core.MissingInputError{Kind: core.InputFile, Name: ref.Source}
		}
		return core.Table{}, fmt.Errorf("open %s: %w", ref.Source, err)
	}
	defer f.Close()

	raw, err := Read(f)
	if err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", ref.Source, err)
	}
	return core.NewTable(filepath.Base(ref.Source), raw), nil
}

// Read parses CSV records, tolerating ragged rows and a UTF-8 BOM.
func Read(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	raw, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 && len(raw[0]) > 0 {
		raw[0][0] = strings.TrimPrefix(raw[0][0], "\ufeff")
	}
	return raw, nil
}

// WriteTable writes t to dest, creating parent directories as needed.
func (Store) WriteTable(ctx context.Context, dest string, t core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}

// Write renders t as CSV with its header first.
func Write(w io.Writer, t core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
