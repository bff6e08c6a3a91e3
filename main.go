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

	"github.com/gin-gonic/gin"
	"github.com/golang/freetype/truetype"
	"github.com/pivolan/review_analyzer/config"
	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/pivolan/review_analyzer/loader"
	"github.com/pivolan/review_analyzer/plot"
	"github.com/pivolan/review_analyzer/report"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.GetConfig()
	logger := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := handleFile(ctx, cfg, logger)
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			logger.Error("cannot load reviews", "path", loadErr.Path, "reason", loadErr.Reason, "error", err)
		} else {
			logger.Error("cannot load reviews", "error", err)
		}
		os.Exit(1)
	}

	var font *truetype.Font
	if cfg.ChartFont != "" {
		if font, err = plot.LoadFont(cfg.ChartFont); err != nil {
			logger.Warn("chart font not loaded, png labels fall back to the built-in font", "error", err)
		}
	}

	if err := report.WriteSummary(os.Stdout, report.Build(table, models.Selection{}, cfg)); err != nil {
		logger.Warn("startup summary", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(&server{table: table, cfg: cfg, logger: logger, font: font}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listen", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error starting server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
