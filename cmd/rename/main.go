package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm/grok"
	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
	"github.com/joseph-ayodele/invoice-renamer/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func usage() {
	printError("Usage: rename [flags] <file-or-directory>...\n\n")
	printError("Renames financial and medical documents after their content.\n\n")
	printError("Flags:\n")
	flag.PrintDefaults()
}

func main() {
	// run owns all defers; os.Exit here never skips the log-sink close
	os.Exit(run())
}

func run() int {
	var (
		dryRun   = flag.Bool("dry-run", false, "compute and print new names without touching any file")
		moveTo   = flag.String("move-to", "", "move renamed files into this directory (default: rename in place)")
		allPages = flag.Bool("all-pages", false, "analyze every page of multi-page documents, not just the first")
		workers  = flag.Int("workers", 0, "concurrent documents (default: RENAMER_WORKERS or 2)")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Workers = *workers
	}

	logger, closer := common.NewLogger(cfg.Log)
	defer closer.Close()

	if err := cfg.ValidateCredentials(); err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	normalizer := normalize.NewNormalizer(normalize.Config{
		Pdftotext: cfg.Normalize.Pdftotext,
		Pdftoppm:  cfg.Normalize.Pdftoppm,
		DPI:       cfg.Normalize.DPI,
	}, logger)

	analyzer := grok.NewClient(grok.Config{
		APIKey:      cfg.Analysis.APIKey,
		BaseURL:     cfg.Analysis.BaseURL,
		Model:       cfg.Analysis.Model,
		VisionModel: cfg.Analysis.VisionModel,
		Temperature: cfg.Analysis.Temperature,
		Timeout:     cfg.Analysis.Timeout,
		MaxRetries:  cfg.Analysis.MaxRetries,
		RatePerSec:  cfg.Analysis.RatePerSec,
	}, logger)

	p := pipeline.New(logger, normalizer, analyzer, pipeline.Options{
		DryRun:   *dryRun,
		AllPages: *allPages,
		MoveTo:   *moveTo,
		Workers:  cfg.Workers,
	})

	files, inputErrs := pipeline.ExpandInputs(flag.Args(), logger)
	for _, ie := range inputErrs {
		printError("Error: %s: %v\n", ie.Path, ie.Err)
	}
	if len(files) == 0 {
		printError("Error: no processable files among the given paths\n")
		return 1
	}

	sum, err := p.Run(ctx, files)
	if err != nil {
		printError("Error: run interrupted: %v\n", err)
	}

	for _, r := range sum.Results {
		switch {
		case r.Err != nil && (errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)):
			printError("SKIPPED %s (run interrupted)\n", r.Path)
		case r.Err != nil:
			kind := common.KindOf(r.Err)
			if kind == "" {
				kind = "INTERNAL"
			}
			printError("FAILED  %s [%s]: %v\n", r.Path, kind, r.Err)
		case r.Plan.NoOp:
			fmt.Printf("KEPT    %s (already named correctly)\n", r.Path)
		case *dryRun:
			fmt.Printf("WOULD   %s -> %s\n", r.Path, r.Plan.FinalPath)
		default:
			fmt.Printf("RENAMED %s -> %s\n", r.Path, r.Plan.FinalPath)
		}
	}
	fmt.Printf("\n%d processed: %d renamed, %d kept, %d failed, %d skipped\n",
		sum.Total, sum.Renamed, sum.NoOp, sum.Failed, sum.Canceled)

	if len(inputErrs) > 0 || sum.Failed > 0 || sum.Canceled > 0 {
		return 1
	}
	return 0
}
