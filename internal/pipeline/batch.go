package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oakmere/invoiceparse/internal/rules"
)

// BatchResult holds the outcome for one file of a batch. Err is set only
// for fatal extraction failures; a file that parsed with empty metadata
// still carries an Invoice.
type BatchResult struct {
	SourceFile string
	Invoice    *ProcessedInvoice
	Err        error
}

// BatchRunner processes independent files over a bounded worker pool.
// One file's failure never aborts the others; cancellation is per file.
type BatchRunner struct {
	proc    *Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration
}

type BatchOption func(*BatchRunner)

func WithWorkers(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithFileTimeout(d time.Duration) BatchOption {
	return func(b *BatchRunner) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func NewBatchRunner(proc *Processor, logger *slog.Logger, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run processes every file and returns results in input order.
func (b *BatchRunner) Run(ctx context.Context, files []string, ruleSet []rules.Rule) []BatchResult {
	results := make([]BatchResult, len(files))
	jobs := make(chan int)

	workers := b.workers
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				path := files[i]
				fileCtx, cancel := context.WithTimeout(ctx, b.timeout)
				inv, err := b.proc.ProcessInvoice(fileCtx, path, ruleSet)
				cancel()

				results[i] = BatchResult{SourceFile: path, Invoice: inv, Err: err}
				if err != nil {
					b.logger.Error("batch.file.failed", "worker_id", workerID, "path", path, "error", err)
				} else {
					b.logger.Info("batch.file.ok", "worker_id", workerID, "path", path, "line_items", len(inv.LineItems))
				}
			}
		}(w + 1)
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
