// Package main is the entry point for the vecbench workload runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/pvec/internal/bench"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if len(opts.Scenarios) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no scenario files given\n\n")
		flag.Usage()
		return 1
	}
	if opts.Watch && len(opts.Scenarios) != 1 {
		fmt.Fprintf(os.Stderr, "Error: -watch takes exactly one scenario file\n")
		return 1
	}

	logger := newLogger(opts.LogLevel)
	runner := bench.NewRunner(logger)

	// Handle signals for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		cancel()
	}()

	if opts.Watch {
		return watch(ctx, runner, logger, opts.Scenarios[0])
	}

	for _, path := range opts.Scenarios {
		if err := execute(ctx, runner, path); err != nil {
			if errors.Is(err, context.Canceled) {
				return 0
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// execute loads and runs one scenario file, printing a result summary.
func execute(ctx context.Context, runner *bench.Runner, path string) error {
	sc, err := bench.Load(path)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, sc)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s): %d ops in %s (%s/op), final len %d, checksum %016x\n",
		report.Scenario, report.Mode, report.Ops,
		report.Duration.Round(time.Microsecond), report.PerOp(),
		report.FinalLen, report.Checksum)
	fmt.Printf("  allocs %d, path copies %d, in-place %d, tail pushes %d, releases %d, recycles %d\n",
		report.Stats.NodeAllocs, report.Stats.PathCopies, report.Stats.InPlaceWrites,
		report.Stats.TailPushes, report.Stats.Releases, report.Stats.PoolRecycles)
	return nil
}

// watch re-runs a scenario whenever its file changes. Run failures
// are logged, not fatal, so the edit-and-rerun loop survives a broken
// intermediate save.
func watch(ctx context.Context, runner *bench.Runner, logger *slog.Logger, path string) int {
	rerun := func() {
		if err := execute(ctx, runner, path); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scenario failed", "path", path, "error", err)
		}
	}

	rerun()
	if err := bench.WatchScenario(ctx, path, bench.DefaultDebounce, logger, rerun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

type options struct {
	LogLevel  string
	Watch     bool
	Scenarios []string
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-run the scenario when its file changes")
	flag.BoolVar(&opts.Watch, "w", false, "Re-run the scenario when its file changes (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Vecbench - persistent vector workload runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: vecbench [options] scenario.toml [scenario.toml...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vecbench churn.toml              Run one scenario\n")
		fmt.Fprintf(os.Stderr, "  vecbench a.toml b.toml           Run several in order\n")
		fmt.Fprintf(os.Stderr, "  vecbench -w churn.toml           Re-run on every edit\n")
		fmt.Fprintf(os.Stderr, "  vecbench -log-level debug x.toml Show dataset and timing detail\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Vecbench %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	// Remaining arguments are scenario files
	opts.Scenarios = flag.Args()

	return opts
}
