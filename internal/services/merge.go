package services

import (
	"fmt"

	"bankgold/internal/core"
)

// BankruptciesColumn is the name of the column appended by MergePrices.
const BankruptciesColumn = "Bankruptcies"

// PriceRow is one row of the monthly price table: its month plus every
// other column verbatim.
type PriceRow struct {
	Period core.Period
	Values []string
}

// PriceTable is the parsed monthly price series.
type PriceTable struct {
	// Columns names the price columns in Values order (Date excluded).
	Columns []string
	Rows    []PriceRow
}

// MergedRow is a price row joined with the distributed value for its month.
type MergedRow struct {
	Period       core.Period
	Values       []string
	Bankruptcies *float64
}

// MergedTable is the left join of a PriceTable with a monthly series.
type MergedTable struct {
	Columns []string
	Rows    []MergedRow
}

// ParsePriceTable reads a price table keyed by its dateColumn. Every other
// column is carried through unchanged.
func ParsePriceTable(t core.Table, dateColumn string) (PriceTable, error) {
	dateIdx, err := t.Column(dateColumn)
	if err != nil {
		return PriceTable{}, err
	}

	var out PriceTable
	var keep []int
	for i, h := range t.Header {
		if i == dateIdx {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, h)
	}

	out.Rows = make([]PriceRow, 0, t.Len())
	for r := range t.Rows {
		p, err := core.ParsePeriod(t.Cell(r, dateIdx))
		if err != nil {
			return PriceTable{}, fmt.Errorf("%s row %d: %w", t.Name, r+2, err)
		}
		values := make([]string, len(keep))
		for j, c := range keep {
			values[j] = t.Cell(r, c)
		}
		out.Rows = append(out.Rows, PriceRow{Period: p, Values: values})
	}
	return out, nil
}

// ParseQuarterlyTable reads (date, value) observations. Empty value cells are
// missing observations; non-numeric ones are a MalformedValueError.
func ParseQuarterlyTable(t core.Table, dateColumn, valueColumn string) ([]core.QuarterlyObservation, error) {
	dateIdx, err := t.Column(dateColumn)
	if err != nil {
		return nil, err
	}
	valueIdx, err := t.Column(valueColumn)
	if err != nil {
		return nil, err
	}

	out := make([]core.QuarterlyObservation, 0, t.Len())
	for r := range t.Rows {
		p, err := core.ParsePeriod(t.Cell(r, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, r+2, err)
		}
		o := core.QuarterlyObservation{Year: p.Year, Month: p.Month}
		if cell := t.Cell(r, valueIdx); cell != "" {
			v, ok := core.ParseNumber(cell)
			if !ok {
				return nil, &core.MalformedValueError{Column: valueColumn, Row: r + 2, Token: cell}
			}
			o.Value = core.Float(v)
		}
		out = append(out, o)
	}
	return out, nil
}

// MergePrices left-joins prices with the monthly series on (year, month).
// Every price row is kept in order; months missing from the series get a
// nil Bankruptcies value.
func MergePrices(prices PriceTable, monthly []core.MonthlyObservation) MergedTable {
	byPeriod := make(map[core.Period]*float64, len(monthly))
	for _, m := range monthly {
		byPeriod[m.Period()] = m.Value
	}

	out := MergedTable{
		Columns: append([]string(nil), prices.Columns...),
		Rows:    make([]MergedRow, 0, len(prices.Rows)),
	}
	for _, row := range prices.Rows {
		merged := MergedRow{
			Period: row.Period,
			Values: append([]string(nil), row.Values...),
		}
		if v, ok := byPeriod[row.Period]; ok && v != nil {
			merged.Bankruptcies = core.Float(*v)
		}
		out.Rows = append(out.Rows, merged)
	}
	return out
}

// Table renders the merged result with Date first and Bankruptcies last.
// Dates are YYYY-MM and missing values are empty cells.
func (m MergedTable) Table(name string) core.Table {
	header := make([]string, 0, len(m.Columns)+2)
	header = append(header, "Date")
	header = append(header, m.Columns...)
	header = append(header, BankruptciesColumn)

	rows := make([][]string, 0, len(m.Rows))
	for _, r := range m.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Period.String())
		row = append(row, r.Values...)
		if r.Bankruptcies != nil {
			row = append(row, core.FormatNumber(*r.Bankruptcies))
		} else {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return core.Table{Name: name, Header: header, Rows: rows}
}

// Matched returns how many rows received a value.
func (m MergedTable) Matched() int {
	n := 0
	for _, r := range m.Rows {
		if r.Bankruptcies != nil {
			n++
		}
	}
	return n
}
