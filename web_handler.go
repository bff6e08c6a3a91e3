package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/freetype/truetype"
	"github.com/pivolan/review_analyzer/config"
	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/pivolan/review_analyzer/plot"
	"github.com/pivolan/review_analyzer/report"
	uuid "github.com/satori/go.uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// server answers every request from the table loaded at startup; it is never mutated.
type server struct {
	table  *models.Table
	cfg    *config.Config
	logger *slog.Logger
	font   *truetype.Font
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(), loggerMiddleware(s.logger), recoveryMiddleware(s.logger))

	r.GET("/", s.handleDashboard)
	r.GET("/chart/:name", s.handleChart)
	r.GET("/summary.txt", s.handleSummary)
	r.GET("/export.xlsx", s.handleExport)
	r.GET("/health", s.handleHealth)
	return r
}

func (s *server) dashboard(c *gin.Context) *report.Dashboard {
	sel := models.Selection{Month: c.Query("month"), Locale: c.Query("locale")}
	return report.Build(s.table, sel, s.cfg)
}

func (s *server) handleDashboard(c *gin.Context) {
	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, s.dashboard(c), s.cfg.AssetsHost); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *server) handleChart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".png")
	chart, ok := s.dashboard(c).Chart(name)
	if !ok {
		c.String(http.StatusNotFound, "unknown chart %q for this selection", name)
		return
	}

	img, err := plot.DrawPNG(chart, s.font)
	if errors.Is(err, plot.ErrNoData) {
		c.String(http.StatusNotFound, "no data for chart %q", name)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *server) handleSummary(c *gin.Context) {
	var buf bytes.Buffer
	if err := report.WriteSummary(&buf, s.dashboard(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *server) handleExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s.dashboard(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="user_review.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"source":  s.table.Source,
		"rows":    s.table.Len(),
		"months":  len(s.table.Months),
		"locales": len(s.table.Locales),
	})
}

func (s *server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	s.logger.Error("request failed", "request_id", c.GetString(requestIDKey), "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, "internal error, request id %s", c.GetString(requestIDKey))
}

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewV4().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"size", c.Writer.Size(),
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, "error", err.Error())
		}
		logger.Info("request", attrs...)
	}
}

func recoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		reqID := c.GetString(requestIDKey)
		logger.Error("panic recovered", "request_id", reqID, "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		c.String(http.StatusInternalServerError, "internal error, request id %s", reqID)
		c.Abort()
	})
}
