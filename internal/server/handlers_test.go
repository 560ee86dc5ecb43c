package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/pipeline"
	"github.com/oakmere/invoiceparse/internal/rules"
)

type stubProcessor struct {
	invoice  *pipeline.ProcessedInvoice
	err      error
	gotRules []rules.Rule
}

func (s *stubProcessor) ProcessInvoice(_ context.Context, path string, ruleSet []rules.Rule) (*pipeline.ProcessedInvoice, error) {
	s.gotRules = ruleSet
	if s.err != nil {
		return nil, s.err
	}
	inv := *s.invoice
	inv.SourceFile = path
	return &inv, nil
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestServer(t *testing.T, proc invoiceProcessor, store rules.Store, maxBytes int64) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(NewHandler(logger, proc, store, maxBytes)))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, rules.StaticStore{}, 0)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestParseInvoiceOK(t *testing.T) {
	number := "INV-123456"
	proc := &stubProcessor{invoice: &pipeline.ProcessedInvoice{
		Prefill: pipeline.FormData{InvoiceNumber: number, Date: "2025-08-04"},
	}}
	store := rules.StaticStore{{TextPattern: "jj foodservice", Priority: 1, IsActive: true}}
	srv := newTestServer(t, proc, store, 0)

	body, contentType := multipartUpload(t, "file", "august.pdf", []byte("%PDF-1.4 fake"))
	resp, err := http.Post(srv.URL+"/v1/invoices/parse", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var inv pipeline.ProcessedInvoice
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&inv))
	assert.Equal(t, "august.pdf", inv.SourceFile)
	assert.Equal(t, number, inv.Prefill.InvoiceNumber)

	// the handler passes the store's rules through to the processor
	require.Len(t, proc.gotRules, 1)
	assert.Equal(t, "jj foodservice", proc.gotRules[0].TextPattern)
}

func TestParseInvoiceMissingFileField(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, rules.StaticStore{}, 0)

	body, contentType := multipartUpload(t, "attachment", "august.pdf", []byte("data"))
	resp, err := http.Post(srv.URL+"/v1/invoices/parse", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseInvoiceNotMultipart(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, rules.StaticStore{}, 0)

	resp, err := http.Post(srv.URL+"/v1/invoices/parse", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseInvoiceTooLarge(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, rules.StaticStore{}, 16)

	body, contentType := multipartUpload(t, "file", "big.pdf", bytes.Repeat([]byte("x"), 64))
	resp, err := http.Post(srv.URL+"/v1/invoices/parse", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseInvoiceExtractionFailure(t *testing.T) {
	proc := &stubProcessor{err: &extract.ExtractionError{Path: "x", Cause: errors.New("not a pdf")}}
	srv := newTestServer(t, proc, rules.StaticStore{}, 0)

	body, contentType := multipartUpload(t, "file", "broken.pdf", []byte("not a pdf"))
	resp, err := http.Post(srv.URL+"/v1/invoices/parse", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "broken.pdf", payload["source_file"])
}

type failingStore struct{}

func (failingStore) ListActiveRules(context.Context) ([]rules.Rule, error) {
	return nil, errors.New("store down")
}

func TestParseInvoiceRuleStoreFailure(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{}, failingStore{}, 0)

	body, contentType := multipartUpload(t, "file", "august.pdf", []byte("data"))
	resp, err := http.Post(srv.URL+"/v1/invoices/parse", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
