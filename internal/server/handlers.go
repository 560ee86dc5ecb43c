package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/pipeline"
	"github.com/oakmere/invoiceparse/internal/rules"
)

// invoiceProcessor is the seam the handler needs from the pipeline.
type invoiceProcessor interface {
	ProcessInvoice(ctx context.Context, path string, ruleSet []rules.Rule) (*pipeline.ProcessedInvoice, error)
}

type Handler struct {
	logger         *slog.Logger
	proc           invoiceProcessor
	store          rules.Store
	maxUploadBytes int64
}

func NewHandler(logger *slog.Logger, proc invoiceProcessor, store rules.Store, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &Handler{logger: logger, proc: proc, store: store, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ParseInvoice accepts a multipart PDF upload and returns the processed
// invoice. The upload is staged to a temp file because the extractor works
// on paths.
func (h *Handler) ParseInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart payload"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file form field is required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read file"})
		return
	}
	if int64(len(body)) > h.maxUploadBytes {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file exceeds size limit"})
		return
	}

	tmp, err := os.CreateTemp("", "invoice-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to stage upload"})
		return
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to stage upload"})
		return
	}
	if err := tmp.Close(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to stage upload"})
		return
	}

	ruleSet, err := h.store.ListActiveRules(ctx)
	if err != nil {
		h.logger.Error("server.rules.load_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to load parsing rules"})
		return
	}

	inv, err := h.proc.ProcessInvoice(ctx, tmpPath, ruleSet)
	if err != nil {
		if extract.IsExtractionError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       "could not extract text from file",
				"source_file": header.Filename,
			})
			return
		}
		h.logger.Error("server.process.failed", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "processing failed"})
		return
	}

	// report the uploaded name, not the temp path
	inv.SourceFile = header.Filename
	writeJSON(w, http.StatusOK, inv)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
