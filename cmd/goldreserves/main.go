package main

import (
	"os"

	"bankgold/internal/chart"
	"bankgold/internal/cli"
	"bankgold/internal/log"
	"bankgold/internal/services"
	"bankgold/internal/sheets"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger())
	base := cli.ConfigureLogger(cfg)
	logger := log.WithComponent(base, log.ComponentApp)

	logger.Info("Starting goldreserves", "backend", cfg.DataBackend, "countries", len(cfg.Countries))

	ctx, stop := cli.SignalContext()
	defer stop()

	result := cli.InitBackend(ctx, base, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", "error", err)
		}
	}()

	renderer := chart.NewRenderer(chart.Options{
		WidthIn:  cfg.ChartWidthIn,
		HeightIn: cfg.ChartHeightIn,
	}, log.WithComponent(base, log.ComponentChart))

	pipeline, err := services.NewReservePipeline(services.ReserveConfig{
		Monthly: sheets.Ref{Source: cfg.ReservesFile, Sheet: cfg.ReservesMonthlySheet},
		Annual:  sheets.Ref{Source: cfg.ReservesFile, Sheet: cfg.ReservesAnnualSheet},
		Options: services.ReserveOptions{
			Countries:    cfg.Countries,
			Aliases:      cfg.Aliases,
			AverageLabel: cfg.AverageLabel,
		},
		ChartDir:    cfg.ChartDir,
		ChartFormat: cfg.ChartFormat,
	}, renderer, services.PipelineDeps{
		Reader:    result.Backend,
		Writer:    result.Backend,
		Store:     result.Store,
		Publisher: result.Publisher,
		Logger:    log.WithComponent(base, log.ComponentReserves),
	})
	if err != nil {
		logger.Error("Invalid reserve configuration", log.NewFields().WithOperation(log.OpValidate).WithError(err).ToSlice()...)
		result.Cleanup()
		os.Exit(1)
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		fields := log.NewFields().WithOperation(services.FailedOperation(err)).WithError(err)
		logger.Error("Gold reserve aggregation failed", fields.ToSlice()...)
		result.Cleanup()
		os.Exit(1)
	}

	for _, c := range summary.FinalChanges {
		logger.Info("Final cumulative change", log.FieldCountry, c.Country, "change", c.Change, "aggregate", c.IsAggregate)
	}
	// Monthly-derived yearly means against the annual sheet
	for _, c := range services.SummarizeComparisons(summary.Comparisons) {
		logger.Info("Yearly comparison",
			log.FieldCountry, c.Country,
			"years", c.Years,
			"max_abs_diff", c.MaxAbsDiff,
			"aggregate", c.IsAggregate)
	}
	logger.Info("Charts written", "dir", cfg.ChartDir, "run_id", summary.Run.ID)
}
