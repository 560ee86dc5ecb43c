package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/rules"
)

// stubExtractor serves canned extractions keyed by path, so the full chain
// runs without poppler.
type stubExtractor struct {
	byPath map[string]extract.TextExtraction
	errAt  map[string]error
}

func (s *stubExtractor) Extract(_ context.Context, path string) (extract.TextExtraction, error) {
	if err, ok := s.errAt[path]; ok {
		return extract.TextExtraction{}, err
	}
	return s.byPath[path], nil
}

const stubInvoiceText = `JJ FOODSERVICE LTD
Invoice No. INV-123456
Invoice Date 04/08/25
Total Amount £ 1,234.56
`

func stubFragments() []extract.Fragment {
	words := []string{"14351", "Nori", "Half", "Sheets", "110", "CASE", "47.55", "47.55", "V"}
	frags := make([]extract.Fragment, 0, len(words))
	for i, w := range words {
		frags = append(frags, extract.Fragment{Text: w, X: float64(i * 40), Y: 120, Page: 1})
	}
	return frags
}

func newTestProcessor(ext extract.TextExtractor) *Processor {
	return NewProcessor(slog.New(slog.NewTextHandler(io.Discard, nil)), ext)
}

func TestProcessInvoiceFullChain(t *testing.T) {
	ext := &stubExtractor{byPath: map[string]extract.TextExtraction{
		"inv.pdf": {FullText: stubInvoiceText, Fragments: stubFragments(), Pages: 1},
	}}
	proc := newTestProcessor(ext)

	inv, err := proc.ProcessInvoice(context.Background(), "inv.pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, "inv.pdf", inv.SourceFile)
	require.NotNil(t, inv.Metadata.InvoiceNumber)
	assert.Equal(t, "INV-123456", *inv.Metadata.InvoiceNumber)
	assert.Equal(t, "INV-123456", inv.Prefill.InvoiceNumber)
	assert.Equal(t, "2025-08-04", inv.Prefill.Date)
	assert.Equal(t, "1234.56", inv.Prefill.TotalAmount)
	assert.Equal(t, "JJ Foodservice", inv.Prefill.SupplierName)

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "14351", inv.LineItems[0].ProductCode)
}

func TestProcessInvoiceIsIdempotent(t *testing.T) {
	ext := &stubExtractor{byPath: map[string]extract.TextExtraction{
		"inv.pdf": {FullText: stubInvoiceText, Fragments: stubFragments(), Pages: 1},
	}}
	proc := newTestProcessor(ext)

	first, err := proc.ProcessInvoice(context.Background(), "inv.pdf", nil)
	require.NoError(t, err)
	second, err := proc.ProcessInvoice(context.Background(), "inv.pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Equal(t, first.LineItems, second.LineItems)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestProcessInvoicePrefillDefaults(t *testing.T) {
	ext := &stubExtractor{byPath: map[string]extract.TextExtraction{
		"blank.pdf": {FullText: "nothing recognisable here", Pages: 1},
	}}
	proc := newTestProcessor(ext)

	inv, err := proc.ProcessInvoice(context.Background(), "blank.pdf", nil)
	require.NoError(t, err)

	assert.Empty(t, inv.Prefill.InvoiceNumber)
	assert.Empty(t, inv.Prefill.SiteName)
	assert.Empty(t, inv.Prefill.TotalAmount)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), inv.Prefill.Date)
	assert.Empty(t, inv.LineItems)
}

func TestProcessInvoiceExtractionFailure(t *testing.T) {
	cause := errors.New("boom")
	ext := &stubExtractor{errAt: map[string]error{
		"bad.pdf": &extract.ExtractionError{Path: "bad.pdf", Cause: cause},
	}}
	proc := newTestProcessor(ext)

	inv, err := proc.ProcessInvoice(context.Background(), "bad.pdf", nil)
	require.Error(t, err)
	assert.Nil(t, inv)
	assert.True(t, extract.IsExtractionError(err))
}

func TestBatchRunIsolatesFailures(t *testing.T) {
	ext := &stubExtractor{
		byPath: map[string]extract.TextExtraction{
			"a.pdf": {FullText: stubInvoiceText, Pages: 1},
			"c.pdf": {FullText: stubInvoiceText, Pages: 1},
		},
		errAt: map[string]error{
			"b.pdf": &extract.ExtractionError{Path: "b.pdf", Cause: errors.New("unreadable")},
		},
	}
	proc := newTestProcessor(ext)
	runner := NewBatchRunner(proc, slog.New(slog.NewTextHandler(io.Discard, nil)), WithWorkers(2))

	results := runner.Run(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"}, nil)
	require.Len(t, results, 3)

	assert.Equal(t, "a.pdf", results[0].SourceFile)
	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Invoice)

	assert.Equal(t, "b.pdf", results[1].SourceFile)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Invoice)

	assert.Equal(t, "c.pdf", results[2].SourceFile)
	assert.NoError(t, results[2].Err)
	require.NotNil(t, results[2].Invoice)
}

func TestBatchRunEmptyInput(t *testing.T) {
	proc := newTestProcessor(&stubExtractor{})
	runner := NewBatchRunner(proc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	results := runner.Run(context.Background(), nil, []rules.Rule{})
	assert.Empty(t, results)
}
