package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ppmigraph/internal/config"
	"ppmigraph/pkg/loader"
	"ppmigraph/pkg/loader/httpfile"
	"ppmigraph/pkg/logger"
	"ppmigraph/pkg/logger/console"
	"ppmigraph/pkg/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(pipeline.Params{
		Tables:          buildTableSet(cfg),
		OutputDir:       cfg.OutputDir,
		AttributePolicy: cfg.Policy(),
	})
	if err != nil {
		logger.Fatal("Failed to configure pipeline", "err", err)
	}

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("Export failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Output written",
		"dir", report.OutputDir,
		"files", len(report.Files),
		"skipped_rows", report.Stats.SkippedRows,
		"unparseable_values", report.Stats.UnparseableValues,
		"cohort_conflicts", report.Stats.CohortConflicts,
	)
}

func buildTableSet(cfg *config.Config) *loader.TableSet {
	return &loader.TableSet{
		Measurements: tableLoader(cfg, cfg.MeasurementsFile),
		Demographics: tableLoader(cfg, cfg.DemographicsFile),
		Diagnoses:    tableLoader(cfg, cfg.DiagnosesFile),
		Genetics:     tableLoader(cfg, cfg.GeneticsFile),
	}
}

func tableLoader(cfg *config.Config, file string) loader.TableLoader {
	localPath := filepath.Join(cfg.DataDir, file)
	url := ""
	if cfg.BaseURL != "" {
		url = cfg.BaseURL + "/" + file
	}
	return httpfile.NewFallbackTableLoader(localPath, url)
}
