package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Timeout   time.Duration
}

// PopplerExtractor shells out to poppler's pdftotext: once with -layout for
// the full text blob, once with -bbox for word coordinates.
type PopplerExtractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewPopplerExtractor(cfg Config, logger *slog.Logger) *PopplerExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &PopplerExtractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// NewPopplerExtractorWithRunner injects a Runner for tests.
func NewPopplerExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *PopplerExtractor {
	e := NewPopplerExtractor(cfg, logger)
	e.runner = r
	return e
}

func (e *PopplerExtractor) Extract(ctx context.Context, path string) (TextExtraction, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		return TextExtraction{}, &ExtractionError{Path: path, Cause: err}
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return TextExtraction{}, &ExtractionError{Path: path, Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return TextExtraction{}, &ExtractionError{Path: path, Cause: fmt.Errorf("no text decoded")}
	}

	frags, bboxWarns, err := e.pdfToFragments(ctx, path)
	if err != nil {
		// The blob decoded, so the file is readable; degrade to no
		// fragments rather than failing the whole file.
		e.logger.Warn("extract.bbox.failed", "path", path, "error", err)
		warns = append(warns, fmt.Sprintf("bbox extraction failed: %v", err))
	}
	warns = append(warns, bboxWarns...)

	res := TextExtraction{
		FullText:  text,
		Fragments: frags,
		Pages:     pages,
		Duration:  time.Since(start),
		Warnings:  warns,
	}
	e.logger.Debug("extract.ok",
		"path", path,
		"pages", pages,
		"text_bytes", len(text),
		"fragments", len(frags),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *PopplerExtractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *PopplerExtractor) pdfToFragments(ctx context.Context, path string) ([]Fragment, []string, error) {
	// pdftotext -bbox <path> - ; emits XHTML with one <word> per box
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-bbox", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	frags, err := parseBBox(out)
	if err != nil {
		return nil, nil, fmt.Errorf("parse bbox output: %w", err)
	}
	return frags, nil, nil
}
