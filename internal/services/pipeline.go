package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"bankgold/internal/core"
	"bankgold/internal/log"
	"bankgold/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// Chart file names written by the reserve pipeline, without extension.
const (
	ChartCumulativeMonthly = "cumulative_monthly"
	ChartYearlyChange      = "yearly_change"
	ChartFinalCumulative   = "final_cumulative"
)

// ResultStore persists finished runs.
type ResultStore interface {
	SaveMonthlySeries(ctx context.Context, run core.Run, points []core.SeriesPoint) error
	SaveFinalChanges(ctx context.Context, run core.Run, changes []core.ChangeRecord) error
}

// RunPublisher announces finished runs.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run core.Run) error
}

// ReserveCharts renders the three reserve charts.
type ReserveCharts interface {
	CumulativeMonthly(ctx context.Context, m MonthlyReserves, dest string) error
	YearlyChange(ctx context.Context, y YearlyReserves, dest string) error
	FinalChanges(ctx context.Context, changes []FinalChange, dest string) error
}

// PipelineDeps are the collaborators shared by both pipelines. Store and
// Publisher are optional.
type PipelineDeps struct {
	Reader    sheets.SheetReader
	Writer    sheets.TableWriter
	Store     ResultStore
	Publisher RunPublisher
	Logger    *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d PipelineDeps) withDefaults() PipelineDeps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// RunSummary reports what a pipeline run produced.
type RunSummary struct {
	Run core.Run

	// Bankruptcy pipeline
	Months    int
	Matched   int
	Unmatched int

	// Reserve pipeline
	Comparisons  []Comparison
	FinalChanges []FinalChange

	Persisted bool
	Published bool
}

// BankruptcyConfig locates the inputs and output of the bankruptcy merge.
type BankruptcyConfig struct {
	Price           sheets.Ref
	PriceDateColumn string
	Quarterly       sheets.Ref
	DateColumn      string
	ValueColumn     string
	Output          string
	SkipEmptyYears  bool
}

// BankruptcyPipeline spreads quarterly bankruptcies over months and joins
// them onto the monthly price table.
type BankruptcyPipeline struct {
	cfg         BankruptcyConfig
	deps        PipelineDeps
	distributor *Distributor
}

func NewBankruptcyPipeline(cfg BankruptcyConfig, deps PipelineDeps) *BankruptcyPipeline {
	deps = deps.withDefaults()
	return &BankruptcyPipeline{
		cfg:         cfg,
		deps:        deps,
		distributor: NewDistributor(DistributorConfig{SkipEmptyYears: cfg.SkipEmptyYears}, deps.Logger),
	}
}

// Run reads both inputs concurrently, distributes, merges and writes the
// merged table, then persists and publishes the run when configured.
func (p *BankruptcyPipeline) Run(ctx context.Context) (RunSummary, error) {
	started := p.deps.Now()
	logger := p.deps.Logger.With(log.FieldPipeline, core.PipelineBankruptcies)

	var priceTbl, quarterlyTbl core.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		priceTbl, err = readSheet(gctx, p.deps.Reader, p.cfg.Price, logger)
		return err
	})
	g.Go(func() (err error) {
		quarterlyTbl, err = readSheet(gctx, p.deps.Reader, p.cfg.Quarterly, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return RunSummary{}, err
	}

	prices, err := ParsePriceTable(priceTbl, p.cfg.PriceDateColumn)
	if err != nil {
		return RunSummary{}, stageErr(log.OpParse, fmt.Errorf("parse prices: %w", err))
	}
	observations, err := ParseQuarterlyTable(quarterlyTbl, p.cfg.DateColumn, p.cfg.ValueColumn)
	if err != nil {
		return RunSummary{}, stageErr(log.OpParse, fmt.Errorf("parse bankruptcies: %w", err))
	}

	monthly, err := p.distributor.DistributeAll(observations)
	if err != nil {
		return RunSummary{}, stageErr(log.OpDistribute, fmt.Errorf("distribute bankruptcies: %w", err))
	}

	merged := MergePrices(prices, monthly)
	if err := p.deps.Writer.WriteTable(ctx, p.cfg.Output, merged.Table(filepath.Base(p.cfg.Output))); err != nil {
		return RunSummary{}, stageErr(log.OpWrite, fmt.Errorf("write merged table: %w", err))
	}

	summary := RunSummary{
		Months:    len(monthly),
		Matched:   merged.Matched(),
		Unmatched: len(merged.Rows) - merged.Matched(),
	}
	if summary.Unmatched > 0 {
		logger.Warn("Price months without bankruptcy data", "count", summary.Unmatched)
	}
	logger.Info("Merged bankruptcies into prices",
		log.FieldOperation, log.OpMerge,
		"quarterly_rows", len(observations),
		"months", summary.Months,
		"rows", len(merged.Rows),
		"matched", summary.Matched,
		"path", p.cfg.Output)

	summary.Run = core.Run{
		ID:         core.NewRunID(),
		Pipeline:   core.PipelineBankruptcies,
		StartedAt:  started,
		FinishedAt: p.deps.Now(),
		Rows:       len(merged.Rows),
		Outputs:    []string{p.cfg.Output},
	}

	points := make([]core.SeriesPoint, 0, len(monthly))
	for _, m := range monthly {
		points = append(points, core.SeriesPoint{Period: m.Period(), Value: m.Value})
	}
	err = finishRun(ctx, p.deps, logger, &summary, func(store ResultStore) error {
		return store.SaveMonthlySeries(ctx, summary.Run, points)
	})
	return summary, err
}

// ReserveConfig locates the reserve workbook and the chart output.
type ReserveConfig struct {
	Monthly     sheets.Ref
	Annual      sheets.Ref
	Options     ReserveOptions
	ChartDir    string
	ChartFormat string
}

// ReservePipeline aggregates the gold-reserve workbook and renders charts.
type ReservePipeline struct {
	cfg        ReserveConfig
	deps       PipelineDeps
	charts     ReserveCharts
	aggregator *ReserveAggregator
}

func NewReservePipeline(cfg ReserveConfig, charts ReserveCharts, deps PipelineDeps) (*ReservePipeline, error) {
	aggregator, err := NewReserveAggregator(cfg.Options)
	if err != nil {
		return nil, err
	}
	if cfg.ChartFormat == "" {
		cfg.ChartFormat = "png"
	}
	return &ReservePipeline{
		cfg:        cfg,
		deps:       deps.withDefaults(),
		charts:     charts,
		aggregator: aggregator,
	}, nil
}

// ChartPath returns where the named chart is written.
func (p *ReservePipeline) ChartPath(name string) string {
	return filepath.Join(p.cfg.ChartDir, name+"."+p.cfg.ChartFormat)
}

// Run reads both sheets concurrently, aggregates, renders the three charts,
// then persists and publishes the run when configured.
func (p *ReservePipeline) Run(ctx context.Context) (RunSummary, error) {
	started := p.deps.Now()
	logger := p.deps.Logger.With(log.FieldPipeline, core.PipelineGoldReserves)

	var monthlyTbl, annualTbl core.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		monthlyTbl, err = readSheet(gctx, p.deps.Reader, p.cfg.Monthly, logger)
		return err
	})
	g.Go(func() (err error) {
		annualTbl, err = readSheet(gctx, p.deps.Reader, p.cfg.Annual, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return RunSummary{}, err
	}

	monthly, err := p.aggregator.Monthly(monthlyTbl)
	if err != nil {
		return RunSummary{}, stageErr(log.OpAggregate, fmt.Errorf("aggregate monthly reserves: %w", err))
	}
	annual, err := p.aggregator.Annual(annualTbl)
	if err != nil {
		return RunSummary{}, stageErr(log.OpAggregate, fmt.Errorf("aggregate annual reserves: %w", err))
	}
	yearly := p.aggregator.YearlyFromMonthly(monthly)
	missing := missingCountries(p.cfg.Options.Countries, monthly.Countries)
	if len(missing) > 0 {
		logger.Warn("Selected countries not found in monthly sheet", "countries", missing)
	}

	summary := RunSummary{
		Comparisons:  p.aggregator.Compare(yearly, annual),
		FinalChanges: p.aggregator.FinalChanges(monthly),
	}
	logger.Info("Aggregated gold reserves",
		log.FieldOperation, log.OpAggregate,
		"months", len(monthly.Periods),
		"countries", len(monthly.Countries),
		"years", len(annual.Years))

	outputs := []string{
		p.ChartPath(ChartCumulativeMonthly),
		p.ChartPath(ChartYearlyChange),
		p.ChartPath(ChartFinalCumulative),
	}
	if err := p.charts.CumulativeMonthly(ctx, monthly, outputs[0]); err != nil {
		return RunSummary{}, stageErr(log.OpRender, fmt.Errorf("render cumulative chart: %w", err))
	}
	if err := p.charts.YearlyChange(ctx, annual, outputs[1]); err != nil {
		return RunSummary{}, stageErr(log.OpRender, fmt.Errorf("render yearly chart: %w", err))
	}
	if err := p.charts.FinalChanges(ctx, summary.FinalChanges, outputs[2]); err != nil {
		return RunSummary{}, stageErr(log.OpRender, fmt.Errorf("render final change chart: %w", err))
	}
	logger.Info("Rendered charts", log.FieldOperation, log.OpRender, "dir", p.cfg.ChartDir, "count", len(outputs))

	summary.Run = core.Run{
		ID:         core.NewRunID(),
		Pipeline:   core.PipelineGoldReserves,
		StartedAt:  started,
		FinishedAt: p.deps.Now(),
		Rows:       len(summary.FinalChanges),
		Outputs:    outputs,
	}

	records := make([]core.ChangeRecord, 0, len(summary.FinalChanges))
	for _, c := range summary.FinalChanges {
		records = append(records, core.ChangeRecord{Name: c.Country, Change: c.Change, Aggregate: c.IsAggregate})
	}
	err = finishRun(ctx, p.deps, logger, &summary, func(store ResultStore) error {
		return store.SaveFinalChanges(ctx, summary.Run, records)
	})
	return summary, err
}

func readSheet(ctx context.Context, reader sheets.SheetReader, ref sheets.Ref, logger *slog.Logger) (core.Table, error) {
	t, err := reader.ReadSheet(ctx, ref)
	if err != nil {
		return core.Table{}, stageErr(log.OpRead, fmt.Errorf("read %s: %w", ref, err))
	}
	fields := log.NewFields().WithOperation(log.OpRead).WithInput(ref.Source, ref.Sheet)
	logger.Debug("Read input sheet", append(fields.ToSlice(), log.FieldRows, t.Len())...)
	return t, nil
}

// finishRun persists then publishes. A store failure fails the run; a
// publish failure is only logged since the outputs already exist.
func finishRun(ctx context.Context, deps PipelineDeps, logger *slog.Logger, summary *RunSummary, persist func(ResultStore) error) error {
	if deps.Store != nil {
		if err := persist(deps.Store); err != nil {
			return stageErr(log.OpPersist, fmt.Errorf("persist run %s: %w", summary.Run.ID, err))
		}
		summary.Persisted = true
	}
	if deps.Publisher != nil {
		if err := deps.Publisher.PublishRunCompleted(ctx, summary.Run); err != nil {
			fields := log.NewFields().WithOperation(log.OpPublish).WithError(err)
			logger.Warn("Failed to publish run completion", append(fields.ToSlice(), log.FieldRunID, summary.Run.ID)...)
		} else {
			summary.Published = true
		}
	}
	logger.Info("Run completed",
		"run_id", summary.Run.ID,
		"duration_ms", summary.Run.Duration().Milliseconds(),
		"persisted", summary.Persisted,
		"published", summary.Published)
	return nil
}

func missingCountries(selected []string, found []Series) []string {
	have := make(map[string]bool, len(found))
	for _, s := range found {
		have[s.Name] = true
	}
	var missing []string
	for _, c := range selected {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
