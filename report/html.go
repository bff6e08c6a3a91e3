package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/pivolan/review_analyzer/plot"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

type page struct {
	*Dashboard
	AppTitle      string
	DetailHeading string
	Columns       []string
	ScriptURL     string
	SummaryURL    string
	ExportURL     string
	Snippets      []plot.Snippet
}

// RenderHTML writes the dashboard page. assetsHost overrides where echarts.min.js is loaded from.
func RenderHTML(w io.Writer, dash *Dashboard, assetsHost string) error {
	p := page{
		Dashboard:     dash,
		AppTitle:      AppTitle,
		DetailHeading: DetailHeading,
		Columns:       DetailColumns,
		ScriptURL:     plot.ScriptURL(assetsHost),
		SummaryURL:    "/summary.txt?" + SelectionQuery(dash),
		ExportURL:     "/export.xlsx?" + SelectionQuery(dash),
	}
	for _, c := range dash.Charts {
		p.Snippets = append(p.Snippets, plot.Interactive(c))
	}
	if err := dashboardTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// SelectionQuery encodes the resolved selection as month/locale query parameters.
func SelectionQuery(dash *Dashboard) string {
	q := url.Values{}
	q.Set("month", dash.Selection.Month)
	q.Set("locale", dash.Selection.Locale)
	return q.Encode()
}
