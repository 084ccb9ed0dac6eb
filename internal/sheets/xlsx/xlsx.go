// Package xlsx reads and writes Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bankgold/internal/core"
	ports "bankgold/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when writing.
const DefaultSheet = "Sheet1"

// Store is an excelize-backed SheetReader and TableWriter.
type Store struct {
	// SheetName names the sheet written by WriteTable.
	SheetName string
}

var (
	_ ports.SheetReader = Store{}
	_ ports.TableWriter = Store{}
)

func New() Store {
	return Store{SheetName: DefaultSheet}
}

// ReadSheet returns the raw cell values of ref.Sheet, or of the first sheet
// when ref.Sheet is empty. Dates come back as Excel serial numbers.
func (s Store) ReadSheet(ctx context.Context, ref ports.Ref) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	if _, err := os.Stat(ref.Source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Table{}, &core.MissingInputError{Kind: core.InputFile, Name: ref.Source}
		}
		return core.Table{}, fmt.Errorf("stat %s: %w", ref.Source, err)
	}

	f, err := excelize.OpenFile(ref.Source)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook %s: %w", ref.Source, err)
	}
	defer f.Close()

	sheet := ref.Sheet
	list := f.GetSheetList()
	if sheet == "" {
		if len(list) == 0 {
			return core.Table{}, &core.MissingInputError{Kind: core.InputSheet, Name: "", Where: ref.Source}
		}
		sheet = list[0]
	} else if !contains(list, sheet) {
		return core.Table{}, &core.MissingInputError{Kind: core.InputSheet, Name: sheet, Where: ref.Source}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Table{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return core.NewTable(sheet, rows), nil
}

// WriteTable writes t to a new workbook at dest.
func (s Store) WriteTable(ctx context.Context, dest string, t core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := s.SheetName
	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", toCells(t.Header, false)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, toCells(row, true)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(dest); err != nil {
		return fmt.Errorf("save %s: %w", dest, err)
	}
	return nil
}

// toCells converts a row for SetSheetRow; numeric cells are stored as
// numbers so spreadsheets can compute with them.
func toCells(row []string, numeric bool) *[]interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		if numeric {
			if f, ok := core.ParseNumber(v); ok {
				cells[i] = f
				continue
			}
		}
		cells[i] = v
	}
	return &cells
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
