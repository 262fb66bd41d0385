// Command mc3data extracts every indicator of the source catalog, assembles
// the narrative themes and writes them as CSV files for the summit
// dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/UdayIND/MC3-Summit/internal/app"
	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/infrastructure"
	"github.com/UdayIND/MC3-Summit/internal/operations"
	"github.com/UdayIND/MC3-Summit/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, nil)
	stop()
	os.Exit(code)
}

// reportPanic prints the recovered value followed by the goroutine trace.
// It must be called from the deferred recover so the trace still holds the
// panicking frames.
func reportPanic(w io.Writer, r any) {
	fmt.Fprintf(w, "Error during processing: %v\n", r)
	w.Write(debug.Stack())
}

// run executes one pipeline run and returns the process exit code. A nil
// logger initializes the configured global logger.
func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			reportPanic(stdout, r)
			code = 1
		}
	}()

	cfg, checkOnly, err := parseConfig(args)
	if err != nil {
		fmt.Fprintf(stdout, "Error during processing: %v\n", err)
		return 2
	}

	if logger == nil {
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			slog.Warn("Failed to initialize logger, using default", "error", err)
			logger = slog.Default()
		}
		defer infrastructure.CloseLogFile()
	}

	rt, err := app.NewRuntime(cfg, stdout, logger)
	if err != nil {
		logger.Error("Failed to initialize", slog.String("error", err.Error()))
		fmt.Fprintf(stdout, "Error during processing: %v\n", err)
		return 1
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.Warn("Failed to release runtime", slog.String("error", err.Error()))
		}
	}()

	report, err := rt.Preflight()
	if checkOnly {
		return printChecks(stdout, report, err)
	}
	if err != nil {
		logger.Warn("Preflight failed", slog.String("error", err.Error()))
	}

	fmt.Fprintln(stdout, config.AppName)
	fmt.Fprintln(stdout, strings.Repeat("=", 50))

	result, err := rt.Pipeline.Run(ctx)
	if err != nil {
		logger.Error("Run failed", slog.String("error", err.Error()))
		fmt.Fprintf(stdout, "Error during processing: %v\n", err)
		return 1
	}

	operations.PrintSummary(stdout, rt.Catalog, rt.Paths.OutputDir, result)
	return 0
}

// printChecks prints the preflight report. The exit code is 1 when the data
// directory is unusable, 0 otherwise.
func printChecks(w io.Writer, report *validation.Report, err error) int {
	if err != nil {
		fmt.Fprintf(w, "Error during processing: %v\n", err)
		return 1
	}
	checks := report.Checks
	for _, c := range checks {
		if c.OK() {
			fmt.Fprintf(w, "  ok       %s (%d files)\n", c.Indicator, c.Files)
			continue
		}
		fmt.Fprintf(w, "  %-8s %s: %s (%s)\n", c.State, c.Indicator, c.Detail, c.Path)
	}
	for _, name := range report.Unrecognized {
		fmt.Fprintf(w, "  unknown  %s: no source reads this file\n", name)
	}
	fmt.Fprintf(w, "%d of %d sources available\n", len(checks)-len(validation.Missing(checks)), len(checks))
	return 0
}

// parseConfig loads the configuration and applies the flags that were set
// on the command line. The bool reports -check.
func parseConfig(args []string) (*config.Config, bool, error) {
	fs := flag.NewFlagSet("mc3data", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	dataDir := fs.String("data", "", "directory containing the source files")
	outputDir := fs.String("output", "", "directory receiving the processed CSV files")
	sources := fs.String("sources", "", "YAML source catalog overriding the built-in one")
	workbook := fs.Bool("workbook", false, "also write all themes to one xlsx workbook")
	sqlitePath := fs.String("sqlite", "", "also store the series in this SQLite database")
	check := fs.Bool("check", false, "only check which sources are present, then exit")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Paths.DataDir = *dataDir
		case "output":
			cfg.Paths.OutputDir = *outputDir
		case "sources":
			cfg.Paths.SourcesFile = *sources
		case "workbook":
			cfg.Output.Workbook = *workbook
		case "sqlite":
			cfg.Output.SQLitePath = *sqlitePath
		}
	})

	return cfg, *check, nil
}
