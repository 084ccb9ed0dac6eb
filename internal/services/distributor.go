package services

import (
	"errors"
	"log/slog"

	"bankgold/internal/core"
)

// DistributorConfig controls how whole series are distributed.
type DistributorConfig struct {
	// SkipEmptyYears drops years without any known value instead of
	// failing the whole series with an EmptyYearError.
	SkipEmptyYears bool
}

// Distributor spreads quarterly reports over the twelve months of their year.
//
// The policy is chosen per year from the number of months with a known value:
//
//	1     the value is a yearly total; every month gets value/12
//	3     each value covers its month and the next two (value/3 each);
//	      later quarters win where blocks overlap, uncovered months get 0
//	0     EmptyYearError
//	other linear interpolation between the known months, flat at both ends
type Distributor struct {
	config DistributorConfig
	logger *slog.Logger
}

// NewDistributor creates a distributor. A nil logger uses slog.Default.
func NewDistributor(config DistributorConfig, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{config: config, logger: logger}
}

// Distribute returns exactly twelve populated months for the group.
func (d *Distributor) Distribute(group core.YearGroup) ([]core.MonthlyObservation, error) {
	slots := group.Slots()

	var values [12]float64
	switch group.KnownCount() {
	case 0:
		return nil, &core.EmptyYearError{Year: group.Year}
	case 1:
		values = spreadYearly(slots)
	case 3:
		values = spreadQuarterBlocks(slots)
	default:
		values = interpolateLinear(slots)
	}

	out := make([]core.MonthlyObservation, 12)
	for i := range values {
		out[i] = core.MonthlyObservation{Year: group.Year, Month: i + 1, Value: core.Float(values[i])}
	}
	return out, nil
}

// DistributeAll groups observations by year and distributes every year,
// returning the months in chronological order.
func (d *Distributor) DistributeAll(observations []core.QuarterlyObservation) ([]core.MonthlyObservation, error) {
	groups := core.GroupByYear(observations)
	out := make([]core.MonthlyObservation, 0, 12*len(groups))
	for _, g := range groups {
		months, err := d.Distribute(g)
		if err != nil {
			var empty *core.EmptyYearError
			if d.config.SkipEmptyYears && errors.As(err, &empty) {
				d.logger.Warn("Skipping year without known observations", "year", g.Year)
				continue
			}
			return nil, err
		}
		out = append(out, months...)
	}
	return out, nil
}

func spreadYearly(slots [12]*float64) [12]float64 {
	var out [12]float64
	for _, v := range slots {
		if v == nil {
			continue
		}
		for i := range out {
			out[i] = *v / 12
		}
	}
	return out
}

func spreadQuarterBlocks(slots [12]*float64) [12]float64 {
	var out [12]float64
	for m, v := range slots {
		if v == nil {
			continue
		}
		share := *v / 3
		for i := m; i < m+3 && i < 12; i++ {
			out[i] = share
		}
	}
	return out
}

func interpolateLinear(slots [12]*float64) [12]float64 {
	var out [12]float64
	anchors := make([]int, 0, 12)
	for i, v := range slots {
		if v != nil {
			anchors = append(anchors, i)
		}
	}
	first, last := anchors[0], anchors[len(anchors)-1]
	for i := 0; i < first; i++ {
		out[i] = *slots[first]
	}
	for i := last; i < 12; i++ {
		out[i] = *slots[last]
	}
	for k := 0; k+1 < len(anchors); k++ {
		lo, hi := anchors[k], anchors[k+1]
		vlo, vhi := *slots[lo], *slots[hi]
		out[lo] = vlo
		for i := lo + 1; i < hi; i++ {
			frac := float64(i-lo) / float64(hi-lo)
			out[i] = vlo + (vhi-vlo)*frac
		}
	}
	return out
}
