package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"bankgold/internal/core"
)

// DefaultAverageLabel names the all-country aggregate when none is configured.
const DefaultAverageLabel = "All-country average"

var yearPattern = regexp.MustCompile(`\d{4}`)

// ReserveOptions selects and names the countries to analyse.
type ReserveOptions struct {
	// Countries is the allow-list, compared after aliasing.
	Countries []string
	// Aliases maps names as they appear in the workbook to display names,
	// e.g. "China, P.R.: Mainland" -> "China".
	Aliases map[string]string
	// AverageLabel names the aggregate series.
	AverageLabel string
}

// Series is one named row of values aligned with its table's axis.
type Series struct {
	Name   string
	Values []float64
}

// Last returns the final value of the series, or NaN when empty.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// MonthlyReserves holds cumulative monthly changes per selected country.
// Average is derived from every row of the sheet and kept apart from the
// per-country series.
type MonthlyReserves struct {
	Periods   []core.Period
	Countries []Series
	Average   Series
}

// YearlyReserves holds one value per year per country.
type YearlyReserves struct {
	Years     []int
	Countries []Series
	Average   Series
}

// Comparison pairs the yearly mean of the monthly cumulative series with the
// change reported in the annual sheet.
type Comparison struct {
	Country     string
	Year        int
	FromMonthly float64
	Reported    float64
	IsAggregate bool
}

// FinalChange is the last cumulative value of a series.
type FinalChange struct {
	Country     string
	Change      float64
	IsAggregate bool
}

// Negative reports whether holdings shrank over the period.
func (f FinalChange) Negative() bool {
	return f.Change < 0
}

// ReserveAggregator turns the gold-reserve workbook into per-country series.
type ReserveAggregator struct {
	opts    ReserveOptions
	allowed map[string]bool
}

// NewReserveAggregator validates options and builds an aggregator.
func NewReserveAggregator(opts ReserveOptions) (*ReserveAggregator, error) {
	if len(opts.Countries) == 0 {
		return nil, fmt.Errorf("reserve aggregation needs at least one country")
	}
	if strings.TrimSpace(opts.AverageLabel) == "" {
		opts.AverageLabel = DefaultAverageLabel
	}
	allowed := make(map[string]bool, len(opts.Countries))
	for _, c := range opts.Countries {
		allowed[strings.TrimSpace(c)] = true
	}
	return &ReserveAggregator{opts: opts, allowed: allowed}, nil
}

// Options returns the aggregator's effective options.
func (a *ReserveAggregator) Options() ReserveOptions {
	return a.opts
}

func (a *ReserveAggregator) normalize(name string) string {
	name = strings.TrimSpace(name)
	if alias, ok := a.opts.Aliases[name]; ok {
		return alias
	}
	return name
}

// Monthly reads the monthly sheet: the first column names the country and
// every column whose header carries a year is a YYYY.MM month of changes.
// Non-numeric changes count as zero.
func (a *ReserveAggregator) Monthly(t core.Table) (MonthlyReserves, error) {
	var cols []int
	var periods []core.Period
	for i, h := range t.Header {
		if i == 0 || !yearPattern.MatchString(h) {
			continue
		}
		p, err := core.ParseYearDotMonth(h)
		if err != nil {
			return MonthlyReserves{}, fmt.Errorf("%s header %q: %w", t.Name, h, err)
		}
		cols = append(cols, i)
		periods = append(periods, p)
	}
	if len(cols) == 0 {
		return MonthlyReserves{}, &core.MissingInputError{Kind: core.InputColumn, Name: "YYYY.MM", Where: t.Name}
	}

	out := MonthlyReserves{Periods: periods}
	sums := make([]float64, len(cols))
	for r := range t.Rows {
		changes := make([]float64, len(cols))
		for j, c := range cols {
			if v, ok := core.ParseNumber(t.Cell(r, c)); ok {
				changes[j] = v
			}
			sums[j] += changes[j]
		}
		name := a.normalize(t.Cell(r, 0))
		if !a.allowed[name] {
			continue
		}
		out.Countries = append(out.Countries, Series{Name: name, Values: cumulative(changes)})
	}

	means := make([]float64, len(cols))
	if n := t.Len(); n > 0 {
		for j := range sums {
			means[j] = sums[j] / float64(n)
		}
	}
	out.Average = Series{Name: a.opts.AverageLabel, Values: cumulative(means)}
	return out, nil
}

// YearlyFromMonthly averages each series' cumulative values per calendar year.
func (a *ReserveAggregator) YearlyFromMonthly(m MonthlyReserves) YearlyReserves {
	index := make(map[int]int)
	var years []int
	for _, p := range m.Periods {
		if _, ok := index[p.Year]; !ok {
			index[p.Year] = len(years)
			years = append(years, p.Year)
		}
	}
	sort.Ints(years)
	for i, y := range years {
		index[y] = i
	}

	resample := func(s Series) Series {
		sums := make([]float64, len(years))
		counts := make([]int, len(years))
		for j, p := range m.Periods {
			k := index[p.Year]
			sums[k] += s.Values[j]
			counts[k]++
		}
		for k := range sums {
			sums[k] /= float64(counts[k])
		}
		return Series{Name: s.Name, Values: sums}
	}

	out := YearlyReserves{Years: years, Average: resample(m.Average)}
	for _, c := range m.Countries {
		out.Countries = append(out.Countries, resample(c))
	}
	return out
}

// Annual reads the annual sheet: a Country column plus one column per year.
// Other columns such as Comments are ignored. Missing country values are
// NaN; the average treats them as zero.
func (a *ReserveAggregator) Annual(t core.Table) (YearlyReserves, error) {
	countryIdx, err := t.Column("Country")
	if err != nil {
		return YearlyReserves{}, err
	}

	var cols []int
	var years []int
	for i, h := range t.Header {
		y, ok := parseYearHeader(h)
		if !ok || i == countryIdx {
			continue
		}
		cols = append(cols, i)
		years = append(years, y)
	}
	if len(cols) == 0 {
		return YearlyReserves{}, &core.MissingInputError{Kind: core.InputColumn, Name: "YYYY", Where: t.Name}
	}

	out := YearlyReserves{Years: years}
	sums := make([]float64, len(cols))
	for r := range t.Rows {
		values := make([]float64, len(cols))
		for j, c := range cols {
			v, ok := core.ParseNumber(t.Cell(r, c))
			if !ok {
				values[j] = math.NaN()
				continue
			}
			values[j] = v
			sums[j] += v
		}
		name := a.normalize(t.Cell(r, countryIdx))
		if a.allowed[name] {
			out.Countries = append(out.Countries, Series{Name: name, Values: values})
		}
	}
	if n := t.Len(); n > 0 {
		for j := range sums {
			sums[j] /= float64(n)
		}
	}
	out.Average = Series{Name: a.opts.AverageLabel, Values: sums}
	return out, nil
}

// Compare lines up monthly-derived yearly means with reported annual changes
// for every country and year present in both.
func (a *ReserveAggregator) Compare(fromMonthly, annual YearlyReserves) []Comparison {
	reportedYear := make(map[int]int, len(annual.Years))
	for i, y := range annual.Years {
		reportedYear[y] = i
	}
	reported := make(map[string]Series, len(annual.Countries))
	for _, s := range annual.Countries {
		if _, dup := reported[s.Name]; !dup {
			reported[s.Name] = s
		}
	}

	var out []Comparison
	pair := func(s, r Series, aggregate bool) {
		for i, y := range fromMonthly.Years {
			j, ok := reportedYear[y]
			if !ok {
				continue
			}
			out = append(out, Comparison{
				Country:     s.Name,
				Year:        y,
				FromMonthly: s.Values[i],
				Reported:    r.Values[j],
				IsAggregate: aggregate,
			})
		}
	}
	for _, s := range fromMonthly.Countries {
		if r, ok := reported[s.Name]; ok {
			pair(s, r, false)
		}
	}
	pair(fromMonthly.Average, annual.Average, true)
	return out
}

// ComparisonSummary condenses the comparisons of one series. Years counts
// only the years where both values are finite.
type ComparisonSummary struct {
	Country     string
	Years       int
	MaxAbsDiff  float64
	IsAggregate bool
}

// SummarizeComparisons groups comparisons per series in first-seen order.
func SummarizeComparisons(cs []Comparison) []ComparisonSummary {
	type key struct {
		name      string
		aggregate bool
	}
	index := make(map[key]int)
	var out []ComparisonSummary
	for _, c := range cs {
		k := key{c.Country, c.IsAggregate}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ComparisonSummary{Country: c.Country, IsAggregate: c.IsAggregate})
		}
		diff := math.Abs(c.FromMonthly - c.Reported)
		if math.IsNaN(diff) || math.IsInf(diff, 0) {
			continue
		}
		out[i].Years++
		out[i].MaxAbsDiff = math.Max(out[i].MaxAbsDiff, diff)
	}
	return out
}

// FinalChanges returns the last cumulative value of every country followed
// by the average.
func (a *ReserveAggregator) FinalChanges(m MonthlyReserves) []FinalChange {
	if len(m.Periods) == 0 {
		return nil
	}
	out := make([]FinalChange, 0, len(m.Countries)+1)
	for _, c := range m.Countries {
		out = append(out, FinalChange{Country: c.Name, Change: c.Last()})
	}
	out = append(out, FinalChange{Country: m.Average.Name, Change: m.Average.Last(), IsAggregate: true})
	return out
}

func cumulative(changes []float64) []float64 {
	out := make([]float64, len(changes))
	running := 0.0
	for i, v := range changes {
		running += v
		out[i] = running
	}
	return out
}

func parseYearHeader(h string) (int, bool) {
	h = strings.TrimSpace(h)
	f, ok := core.ParseNumber(h)
	if !ok || strings.Contains(h, ",") || f != math.Trunc(f) || f < 1000 || f > 9999 {
		return 0, false
	}
	return int(f), true
}
