package main

import (
	"os"

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

	logger.Info("Starting bankruptcies", "backend", cfg.DataBackend)

	ctx, stop := cli.SignalContext()
	defer stop()

	result := cli.InitBackend(ctx, base, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", "error", err)
		}
	}()

	pipeline := services.NewBankruptcyPipeline(services.BankruptcyConfig{
		Price:           sheets.Ref{Source: cfg.PriceFile, Sheet: cfg.PriceSheet},
		PriceDateColumn: cfg.PriceDateColumn,
		Quarterly:       sheets.Ref{Source: cfg.BankruptciesFile, Sheet: cfg.BankruptciesSheet},
		DateColumn:      cfg.BankruptciesDate,
		ValueColumn:     cfg.BankruptciesValue,
		Output:          cfg.MergedOutput,
		SkipEmptyYears:  cfg.SkipEmptyYears,
	}, services.PipelineDeps{
		Reader:    result.Backend,
		Writer:    result.Backend,
		Store:     result.Store,
		Publisher: result.Publisher,
		Logger:    log.WithComponent(base, log.ComponentMerge),
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		fields := log.NewFields().WithOperation(services.FailedOperation(err)).WithError(err)
		logger.Error("Bankruptcy merge failed", fields.ToSlice()...)
		result.Cleanup()
		os.Exit(1)
	}

	logger.Info("Merged data written",
		"path", cfg.MergedOutput,
		"rows", summary.Run.Rows,
		"matched", summary.Matched,
		"run_id", summary.Run.ID)
}
