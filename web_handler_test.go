package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/pivolan/review_analyzer/config"
	"github.com/pivolan/review_analyzer/loader"
	"github.com/pivolan/review_analyzer/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const reviewsCSV = `ticket_id,text,value,created_at,locale
1,使いやすさ,5,2024-01-10 10:00:00,en
1,デザイン,3,2024-01-10 10:00:00,en
2,使いやすさ,bad,2024-02-03 08:00:00,zh
3,ご自由にお書きください,とても良い,2024-02-04 09:30:00,ko
`

func testServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "user_review.csv")
	require.NoError(t, os.WriteFile(path, []byte(reviewsCSV), 0o644))

	cfg := &config.Config{
		ReviewFile:       path,
		AdminBaseURL:     "https://admin.example.com",
		FreeTextMarker:   config.DefaultFreeTextMarker,
		InputEncoding:    "utf-8",
		TimestampLayouts: config.DefaultTimestampLayouts,
	}
	logger := newLogger(io.Discard, "debug")
	table, err := handleFile(context.Background(), cfg, logger)
	require.NoError(t, err)
	return &server{table: table, cfg: cfg, logger: logger}
}

func get(t *testing.T, router http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func query(month, locale string) string {
	q := url.Values{}
	q.Set("month", month)
	q.Set("locale", locale)
	return q.Encode()
}

func TestHandleFile(t *testing.T) {
	s := testServer(t)
	assert.Equal(t, 4, s.table.Len())
	assert.Equal(t, []string{"2024年01月", "2024年02月"}, s.table.Months)
	assert.Equal(t, []string{"英語", "中国語", "韓国語"}, s.table.Locales)
}

func TestHandleFileMissing(t *testing.T) {
	cfg := &config.Config{ReviewFile: filepath.Join(t.TempDir(), "missing.csv"), InputEncoding: "utf-8"}
	_, err := handleFile(context.Background(), cfg, newLogger(io.Discard, "info"))

	var loadErr *loader.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "open", loadErr.Reason)
}

func TestExtraColumns(t *testing.T) {
	assert.Equal(t, []string{"channel"}, extraColumns([]string{"ticket_id", "channel", "text"}))
	assert.Empty(t, extraColumns([]string{"ticket_id", "text", "value", "created_at", "locale"}))
}

func TestDashboardPage(t *testing.T) {
	router := newRouter(testServer(t))

	tests := []struct {
		name   string
		target string
		title  string
		charts int
		rows   int
	}{
		{"Default", "/", "全月 の 全言語 のユーザー評価", 5, 4},
		{"Month", "/?" + query("2024年02月", "全言語"), "2024年02月 の 全言語 のユーザー評価", 3, 2},
		{"Locale", "/?" + query("全月", "英語"), "全月 の 英語 のユーザー評価", 5, 2},
		{"No match", "/?" + query("2024年01月", "韓国語"), "2024年01月 の 韓国語 のユーザー評価", 3, 0},
		{"Unknown values", "/?" + query("2030年01月", "fr"), "全月 の 全言語 のユーザー評価", 5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

			doc, err := goquery.NewDocumentFromReader(w.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.title, doc.Find("h2#title").Text())
			assert.Equal(t, tt.charts, doc.Find("section.chart").Length())
			assert.Equal(t, tt.rows, doc.Find("table.detail tbody tr").Length())
		})
	}
}

func TestDashboardDetailLinks(t *testing.T) {
	router := newRouter(testServer(t))
	w := get(t, router, "/?"+query("全月", "韓国語"))
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	link := doc.Find("table.detail tbody tr td a").First()
	href, _ := link.Attr("href")
	assert.Equal(t, "https://admin.example.com/tickets/3", href)
	assert.Equal(t, "3", link.Text())
	assert.Equal(t, config.DefaultFreeTextMarker, doc.Find("table.detail tbody tr td").Eq(1).Text())
}

func TestChartPNG(t *testing.T) {
	router := newRouter(testServer(t))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"Bar", "/chart/" + report.ChartLocaleMean, http.StatusOK},
		{"With extension", "/chart/" + report.ChartLocaleCount + ".png", http.StatusOK},
		{"Line", "/chart/" + report.ChartMonthlyMean, http.StatusOK},
		{"Line with a single month", "/chart/" + report.ChartMonthlyMean + "?" + query("全月", "英語"), http.StatusOK},
		{"Monthly count for a single-month locale", "/chart/" + report.ChartMonthlyCount + "?" + query("全月", "韓国語"), http.StatusOK},
		{"Unknown", "/chart/nope", http.StatusNotFound},
		{"Month charts hidden for a single month", "/chart/" + report.ChartMonthlyMean + "?" + query("2024年01月", "全言語"), http.StatusNotFound},
		{"Empty aggregate", "/chart/" + report.ChartLocaleMean + "?" + query("2024年01月", "韓国語"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.target)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
				assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
			}
		})
	}
}

func TestSummaryText(t *testing.T) {
	router := newRouter(testServer(t))
	w := get(t, router, "/summary.txt?"+query("全月", "英語"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "全月 の 英語 のユーザー評価")
	assert.Contains(t, w.Body.String(), "4.00")
}

func TestExportXLSX(t *testing.T) {
	router := newRouter(testServer(t))
	w := get(t, router, "/export.xlsx?"+query("2024年01月", "全言語"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.DetailHeading)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHealth(t *testing.T) {
	router := newRouter(testServer(t))
	w := get(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 4.0, body["rows"])
	assert.Equal(t, 2.0, body["months"])
}

func TestRequestID(t *testing.T) {
	router := newRouter(testServer(t))

	w := get(t, router, "/health")
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = get(t, router, "/health", requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	r := gin.New()
	r.Use(requestIDMiddleware(), recoveryMiddleware(newLogger(&logs, "info")))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(t, r, "/boom", requestIDHeader, "req-1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "req-1")
	assert.Contains(t, logs.String(), `"panic":"boom"`)
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	r := gin.New()
	r.Use(requestIDMiddleware(), loggerMiddleware(newLogger(&logs, "info")))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "pong") })

	get(t, r, "/ping?x=1", requestIDHeader, "req-2")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "req-2", entry["request_id"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.Equal(t, 418.0, entry["status"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "ERROR", parseLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLevel("whatever").String())
}
