package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"italian-cge/internal/calibration"
	"italian-cge/internal/config"
	"italian-cge/internal/dynamics"
	"italian-cge/internal/registry"
	"italian-cge/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "calibrate":
		cmdCalibrate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --config examples/run.yaml --out results/")
	fmt.Println("  cli calibrate --sam data/sam_italy_2021.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run solves every configured scenario year by year and writes CSV ledgers")
	fmt.Println("  - calibrate checks a SAM against the base-year targets and prints the accounts")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML run config (empty = built-in defaults)")
	outDir := fs.String("out", "results", "Output directory for CSV ledgers")
	verbose := fs.Bool("v", false, "Debug logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Error("config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	defs := registry.NewDefinitions()
	par, err := calibration.Load(defs, cfg.SAMFile, cfg.Targets(), log)
	if err != nil {
		log.Error("calibration", "err", err)
		os.Exit(1)
	}
	for _, w := range par.Warnings {
		log.Warn("calibration", "warning", w)
	}

	driver, err := dynamics.New(defs, par, cfg.LastYear, cfg.SolverOptions(), log)
	if err != nil {
		log.Error("setup", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, runErr := driver.RunAll(ctx, cfg.ToScenarios())
	if runErr != nil {
		log.Error("run", "err", runErr)
		// Solved years are still written below.
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("output", "err", err)
		os.Exit(1)
	}
	outputs := []struct {
		name string
		err  error
	}{
		{cfg.Output.AnnualCSV, report.WriteAnnualCSV(filepath.Join(*outDir, cfg.Output.AnnualCSV), report.Annual(results))},
		{cfg.Output.SectorCSV, report.WriteSectorCSV(filepath.Join(*outDir, cfg.Output.SectorCSV), report.Sectors(defs, results))},
		{cfg.Output.RegionCSV, report.WriteRegionCSV(filepath.Join(*outDir, cfg.Output.RegionCSV), report.Regions(defs, results))},
	}
	for _, o := range outputs {
		if o.err != nil {
			log.Error("output", "file", o.name, "err", o.err)
			os.Exit(1)
		}
		log.Info("wrote", "file", filepath.Join(*outDir, o.name))
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func cmdCalibrate(args []string) {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	samPath := fs.String("sam", "", "Path to SAM CSV (empty = synthetic accounts)")
	gdp := fs.Float64("gdp", 1782.0, "Base-year GDP target, EUR billion")
	pop := fs.Float64("pop", 59.13, "Base-year population, million")
	year := fs.Int("year", 2021, "Base year")
	verbose := fs.Bool("v", false, "Debug logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)
	defs := registry.NewDefinitions()
	par, err := calibration.Load(defs, *samPath, calibration.Targets{
		BaseYear: *year, GDPBillion: *gdp, PopulationMillion: *pop,
	}, log)
	if err != nil {
		log.Error("calibration", "err", err)
		os.Exit(1)
	}

	fmt.Printf("source: %s\n", par.Source)
	fmt.Printf("GDP: %.0f MEUR (target %.0f, deviation %.2f%%)\n",
		par.GDP(), par.TargetGDP, 100*par.GDPDeviation)
	fmt.Printf("emissions: %.1f MtCO2\n", par.TotalEmissions)
	fmt.Printf("labor supply: %.0f MEUR, capital stock: %.0f MEUR\n", par.LaborSupply, par.CapitalStock)
	fmt.Println()
	fmt.Printf("%-12s %14s %14s %12s %12s\n", "sector", "output", "value added", "exports", "imports")
	for _, s := range defs.Sectors {
		sp := par.Sectors[s]
		fmt.Printf("%-12s %14.0f %14.0f %12.0f %12.0f\n",
			s, sp.GrossOutput, sp.ValueAdded, sp.Exports, sp.Imports)
	}
	for _, w := range par.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
