package core

import (
	"sort"
)

type (
	// QuarterlyObservation is one reported value keyed by the month it was
	// reported in. A nil Value means the report is missing.
	QuarterlyObservation struct {
		Year  int
		Month int
		Value *float64
	}

	// MonthlyObservation is one month of a distributed series.
	MonthlyObservation struct {
		Year  int
		Month int
		Value *float64
	}

	// YearGroup holds every QuarterlyObservation of one calendar year.
	YearGroup struct {
		Year         int
		Observations []QuarterlyObservation
	}
)

// Float returns a pointer to v, for building observations.
func Float(v float64) *float64 {
	return &v
}

// Period returns the month the observation was reported in.
func (o QuarterlyObservation) Period() Period {
	return Period{Year: o.Year, Month: o.Month}
}

func (o MonthlyObservation) Period() Period {
	return Period{Year: o.Year, Month: o.Month}
}

// Known reports whether the observation carries a value.
func (o QuarterlyObservation) Known() bool {
	return o.Value != nil
}

// KnownCount returns the number of distinct months with a known value.
// When a month is reported more than once the last report counts.
func (g YearGroup) KnownCount() int {
	n := 0
	for _, v := range g.Slots() {
		if v != nil {
			n++
		}
	}
	return n
}

// Slots lays the group out as twelve month slots (index 0 is January).
// A later known value for the same month replaces an earlier one, a missing
// report never erases a known one, and months outside 1-12 are ignored.
func (g YearGroup) Slots() [12]*float64 {
	var slots [12]*float64
	for _, o := range g.Observations {
		if !o.Known() || !o.Period().Valid() {
			continue
		}
		v := *o.Value
		slots[o.Month-1] = &v
	}
	return slots
}

// GroupByYear splits observations into YearGroups in ascending year order,
// keeping the input order within each year.
func GroupByYear(observations []QuarterlyObservation) []YearGroup {
	byYear := make(map[int][]QuarterlyObservation)
	for _, o := range observations {
		byYear[o.Year] = append(byYear[o.Year], o)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	groups := make([]YearGroup, 0, len(years))
	for _, y := range years {
		groups = append(groups, YearGroup{Year: y, Observations: byYear[y]})
	}
	return groups
}
