package chart

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bankgold/internal/core"
	"bankgold/internal/log"
	"bankgold/internal/services"
)

func testRenderer() *Renderer {
	return NewRenderer(Options{WidthIn: 4, HeightIn: 3}, log.Discard())
}

func monthly() services.MonthlyReserves {
	return services.MonthlyReserves{
		Periods: []core.Period{core.NewPeriod(2023, 11), core.NewPeriod(2023, 12), core.NewPeriod(2024, 1)},
		Countries: []services.Series{
			{Name: "China", Values: []float64{10, 15, 15}},
			{Name: "Russia", Values: []float64{-3, -3, 0}},
		},
		Average: services.Series{Name: "All-country average", Values: []float64{2.25, 4.25, 5.25}},
	}
}

func assertFile(t *testing.T, path string, prefix []byte) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(b) == 0 || !bytes.HasPrefix(b, prefix) {
		t.Fatalf("%s does not look like the expected format (%d bytes)", path, len(b))
	}
}

var pngMagic = []byte("\x89PNG")

func TestCumulativeMonthly_PNG(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "charts", "cumulative_monthly.png")
	if err := testRenderer().CumulativeMonthly(context.Background(), monthly(), dest); err != nil {
		t.Fatalf("CumulativeMonthly() error = %v", err)
	}
	assertFile(t, dest, pngMagic)
}

func TestYearlyChange_SVGSkipsMissingValues(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "yearly_change.svg")
	y := services.YearlyReserves{
		Years: []int{2022, 2023, 2024},
		Countries: []services.Series{
			{Name: "China", Values: []float64{62, 225, math.NaN()}},
			{Name: "India", Values: []float64{math.NaN(), math.NaN(), math.NaN()}},
		},
		Average: services.Series{Name: "All-country average", Values: []float64{5, 12.5, 1}},
	}
	if err := testRenderer().YearlyChange(context.Background(), y, dest); err != nil {
		t.Fatalf("YearlyChange() error = %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !strings.Contains(string(b), "<svg") {
		t.Fatalf("output is not SVG")
	}
}

func TestFinalChanges(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "final_cumulative.png")
	changes := []services.FinalChange{
		{Country: "United States", Change: 0},
		{Country: "Russia", Change: -6},
		{Country: "China", Change: 24},
		{Country: "India", Change: math.NaN()},
		{Country: "All-country average", Change: 6.25, IsAggregate: true},
	}
	if err := testRenderer().FinalChanges(context.Background(), changes, dest); err != nil {
		t.Fatalf("FinalChanges() error = %v", err)
	}
	assertFile(t, dest, pngMagic)
}

func TestRenderUnsupportedFormat(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "chart.bmp")
	if err := testRenderer().CumulativeMonthly(context.Background(), monthly(), dest); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "final_cumulative.png")
	if err := testRenderer().FinalChanges(ctx, nil, dest); err != context.Canceled {
		t.Fatalf("FinalChanges() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("no file should be written when cancelled")
	}
}

func TestNewRendererDefaults(t *testing.T) {
	r := NewRenderer(Options{}, nil)
	if r.opts != DefaultOptions() {
		t.Errorf("opts = %+v, want %+v", r.opts, DefaultOptions())
	}
}

func TestIntegerTicks(t *testing.T) {
	for _, tick := range (integerTicks{}).Ticks(2021.5, 2024.5) {
		if tick.Label == "" {
			continue
		}
		if strings.Contains(tick.Label, ".") || strings.Contains(tick.Label, ",") {
			t.Errorf("tick label %q is not a plain year", tick.Label)
		}
	}
}
