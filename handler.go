package main

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/pivolan/review_analyzer/config"
	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/pivolan/review_analyzer/loader"
	"github.com/pivolan/review_analyzer/normalize"
)

// handleFile loads the review file named in cfg and normalizes it into the dashboard table.
func handleFile(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*models.Table, error) {
	start := time.Now()
	raw, err := loader.Load(ctx, cfg.ReviewFile, loader.Options{
		Encoding: cfg.InputEncoding,
		Sheet:    cfg.XLSXSheet,
	})
	if err != nil {
		return nil, err
	}

	table, stats := normalize.Normalize(raw, normalize.Options{TimestampLayouts: cfg.TimestampLayouts})
	logger.Info("reviews loaded",
		"source", table.Source,
		"rows", stats.Rows,
		"bad_timestamps", stats.BadTimestamps,
		"non_numeric_scores", stats.NonNumeric,
		"unknown_locales", stats.UnknownLocales,
		"months", len(table.Months),
		"locales", len(table.Locales),
		"took", time.Since(start),
	)
	if extra := extraColumns(raw.Headers); len(extra) > 0 {
		logger.Debug("extra columns are kept but not displayed", "columns", extra)
	}
	return table, nil
}

func extraColumns(headers []string) []string {
	var extra []string
	for _, h := range headers {
		if !slices.Contains(models.RequiredColumns, h) {
			extra = append(extra, h)
		}
	}
	return extra
}
