package core

import (
	"math"
	"strconv"
	"strings"
)

// Table is a rectangular block of cells as read from a sheet or CSV file.
// The first row of the source becomes Header; Rows may be ragged.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewTable splits raw rows into header and body. Leading blank rows are
// skipped.
func NewTable(name string, raw [][]string) Table {
	for len(raw) > 0 && isBlankRow(raw[0]) {
		raw = raw[1:]
	}
	if len(raw) == 0 {
		return Table{Name: name}
	}
	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		header[i] = strings.TrimSpace(h)
	}
	body := make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if isBlankRow(r) {
			continue
		}
		body = append(body, r)
	}
	return Table{Name: name, Header: header, Rows: body}
}

// Column returns the index of the named column (case-insensitive).
func (t Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return -1, &MissingInputError{Kind: InputColumn, Name: name, Where: t.Name}
}

// Cell returns the trimmed cell at row r, column c, or "" when the row is
// shorter than c.
func (t Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

// Len returns the number of body rows.
func (t Table) Len() int {
	return len(t.Rows)
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseNumber parses a numeric cell. Thousands separators are tolerated.
// ok is false for empty or non-numeric cells.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders v the way pandas writes floats: integral values keep
// a trailing ".0".
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}
	return s
}
