package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oakmere/invoiceparse/internal/common"
	"github.com/oakmere/invoiceparse/internal/extract"
	"github.com/oakmere/invoiceparse/internal/pipeline"
	"github.com/oakmere/invoiceparse/internal/rules"
	"github.com/oakmere/invoiceparse/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openRuleStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open rule store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	extractor := extract.NewPopplerExtractor(extract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		Timeout:   cfg.Extract.Timeout,
	}, logger)

	proc := pipeline.NewProcessor(logger, extractor)
	h := server.NewHandler(logger, proc, store, cfg.Server.MaxUploadBytes)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.NewRouter(h),
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown interrupted", "error", err)
	}
}

func openRuleStore(cfg *common.Config, logger *slog.Logger) (rules.Store, func(), error) {
	switch cfg.Rules.Source {
	case "db":
		store, err := rules.OpenDBStore(cfg.Rules.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Init(context.Background()); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return rules.NewFileStore(cfg.Rules.Path, logger), func() {}, nil
	}
}
