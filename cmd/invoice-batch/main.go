package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/oakmere/invoiceparse/internal/export"
	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/ingest"
	"github.com/oakmere/invoiceparse/internal/pipeline"
	"github.com/oakmere/invoiceparse/internal/rules"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of invoice PDFs to process (required)")
		rulesPath = flag.String("rules", "", "parsing rules JSON file (optional)")
		dsn       = flag.String("dsn", "", "parsing rules database DSN (optional, overrides -rules)")
		out       = flag.String("out", "", "output XLSX report path (defaults next to -dir)")
		workers   = flag.Int("workers", 4, "concurrent files")
		timeout   = flag.Duration("timeout", 2*time.Minute, "per-file processing timeout")
		pdftotext = flag.String("pdftotext", "pdftotext", "pdftotext binary")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: -dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "invoices.xlsx")
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	ruleSet, err := loadRules(ctx, *rulesPath, *dsn, logger)
	if err != nil {
		logger.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	logger.Info("rules loaded", "active", len(ruleSet))

	files, stats, err := ingest.DiscoverFiles(*dir, true)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("directory scanned",
		"dir", *dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
	)
	if len(files) == 0 {
		printError("No invoice files found under %s\n", *dir)
		os.Exit(1)
	}

	extractor := extract.NewPopplerExtractor(extract.Config{Pdftotext: *pdftotext}, logger)
	proc := pipeline.NewProcessor(logger, extractor)
	runner := pipeline.NewBatchRunner(proc, logger,
		pipeline.WithWorkers(*workers),
		pipeline.WithFileTimeout(*timeout),
	)

	results := runner.Run(ctx, files, ruleSet)

	processed, failures := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		} else {
			processed++
		}
	}

	report, err := export.NewService(logger).BatchReportXLSX(results)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, report, 0644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"files", len(files),
		"processed", processed,
		"failures", failures,
		"report", *out,
	)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d\n", len(files))
	fmt.Printf("- Processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Report: %s\n", *out)
}

func loadRules(ctx context.Context, path, dsn string, logger *slog.Logger) ([]rules.Rule, error) {
	if dsn != "" {
		store, err := rules.OpenDBStore(dsn, logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		return store.ListActiveRules(ctx)
	}
	if path != "" {
		return rules.NewFileStore(path, logger).ListActiveRules(ctx)
	}
	// no rules configured: metadata extraction still works, nothing gets
	// rule associations
	return nil, nil
}
