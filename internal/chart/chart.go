// Package chart renders the gold-reserve charts with gonum/plot.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bankgold/internal/core"
	"bankgold/internal/services"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Options controls figure size in inches.
type Options struct {
	WidthIn  float64
	HeightIn float64
}

// DefaultOptions matches a 10x6 inch figure.
func DefaultOptions() Options {
	return Options{WidthIn: 10, HeightIn: 6}
}

var (
	negativeColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	positiveColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	averageDashes = []vg.Length{vg.Points(6), vg.Points(4)}
)

// Renderer draws charts to image files; the format follows the destination
// extension (png, svg, pdf...).
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

var _ services.ReserveCharts = (*Renderer)(nil)

// NewRenderer creates a renderer. Non-positive sizes fall back to defaults.
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	def := DefaultOptions()
	if opts.WidthIn <= 0 {
		opts.WidthIn = def.WidthIn
	}
	if opts.HeightIn <= 0 {
		opts.HeightIn = def.HeightIn
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{opts: opts, logger: logger}
}

// CumulativeMonthly draws one line per country over the monthly axis, with
// the all-country average dashed black.
func (r *Renderer) CumulativeMonthly(ctx context.Context, m services.MonthlyReserves, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := newPlot("Cumulative change in gold reserves", "Month", "Cumulative change (tonnes)")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	xs := make([]float64, len(m.Periods))
	for i, period := range m.Periods {
		xs[i] = float64(monthStart(period).Unix())
	}
	for i, s := range m.Countries {
		if err := addLine(p, s.Name, xs, s.Values, plotutil.Color(i), nil); err != nil {
			return err
		}
	}
	if err := addLine(p, m.Average.Name, xs, m.Average.Values, color.Black, averageDashes); err != nil {
		return err
	}
	return r.save(p, dest)
}

// YearlyChange draws the yearly change per country, average dashed black.
// Missing years are skipped.
func (r *Renderer) YearlyChange(ctx context.Context, y services.YearlyReserves, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := newPlot("Yearly change in gold reserves by country", "Year", "Change (tonnes)")
	p.X.Tick.Marker = integerTicks{}

	xs := make([]float64, len(y.Years))
	for i, year := range y.Years {
		xs[i] = float64(year)
	}
	for i, s := range y.Countries {
		if err := addLine(p, s.Name, xs, s.Values, plotutil.Color(i), nil); err != nil {
			return err
		}
	}
	if err := addLine(p, y.Average.Name, xs, y.Average.Values, color.Black, averageDashes); err != nil {
		return err
	}
	return r.save(p, dest)
}

// FinalChanges draws one bar per entry, red when negative and blue otherwise.
func (r *Renderer) FinalChanges(ctx context.Context, changes []services.FinalChange, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := newPlot("Final cumulative change in gold reserves by country", "", "Cumulative change (tonnes)")

	names := make([]string, len(changes))
	width := vg.Points(barWidth(r.opts.WidthIn, len(changes)))
	for i, c := range changes {
		names[i] = c.Country
		if math.IsNaN(c.Change) || math.IsInf(c.Change, 0) {
			continue
		}
		bar, err := plotter.NewBarChart(plotter.Values{c.Change}, width)
		if err != nil {
			return fmt.Errorf("bar %s: %w", c.Country, err)
		}
		bar.XMin = float64(i)
		bar.LineStyle.Width = 0
		bar.Color = positiveColor
		if c.Negative() {
			bar.Color = negativeColor
		}
		p.Add(bar)
	}
	if len(names) > 0 {
		p.NominalX(names...)
	}
	p.Add(plotter.NewGrid())
	return r.save(p, dest)
}

func (r *Renderer) save(p *plot.Plot, dest string) error {
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory: %w", err)
		}
	}
	w := vg.Length(r.opts.WidthIn) * vg.Inch
	h := vg.Length(r.opts.HeightIn) * vg.Inch
	if err := p.Save(w, h, dest); err != nil {
		return fmt.Errorf("save chart %s: %w", dest, err)
	}
	r.logger.Debug("Rendered chart", "path", dest, "format", strings.TrimPrefix(filepath.Ext(dest), "."))
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true
	return p
}

// addLine adds a named polyline, skipping non-finite points. Series with no
// finite point are left out.
func addLine(p *plot.Plot, name string, xs, ys []float64, c color.Color, dashes []vg.Length) error {
	pts := make(plotter.XYs, 0, len(ys))
	for i, y := range ys {
		if i >= len(xs) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: y})
	}
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("line %s: %w", name, err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	line.LineStyle.Dashes = dashes
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// barWidth fits n bars into most of the plot width.
func barWidth(widthIn float64, n int) float64 {
	if n <= 0 {
		return 20
	}
	return math.Max(4, widthIn*72*0.6/float64(n))
}

func monthStart(p core.Period) time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// integerTicks labels whole numbers only, so years never show as 2,020.5.
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for _, t := range (plot.DefaultTicks{}).Ticks(min, max) {
		if t.Label != "" && t.Value != math.Trunc(t.Value) {
			continue
		}
		if t.Label != "" {
			t.Label = fmt.Sprintf("%d", int(t.Value))
		}
		ticks = append(ticks, t)
	}
	return ticks
}
