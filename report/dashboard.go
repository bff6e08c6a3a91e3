// Package report turns the normalized table and a selection into the dashboard view
// and its HTML, text and XLSX renditions.
package report

import (
	"fmt"
	"net/url"

	"github.com/pivolan/review_analyzer/config"
	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/pivolan/review_analyzer/plot"
	"github.com/pivolan/review_analyzer/stats"
)

const (
	AppTitle       = "GTNアプリユーザー評価"
	DetailHeading  = "詳細データ"
	DisplayTimeFmt = "2006-01-02 15:04:05.999999"
)

// Chart ids, also used as the /chart/:name path segment.
const (
	ChartMonthlyMean  = "monthly_mean"
	ChartMonthlyCount = "monthly_count"
	ChartLocaleMean   = "locale_mean"
	ChartContentMean  = "content_mean"
	ChartLocaleCount  = "locale_count"
)

// DetailColumns are the visible detail table headers in display order.
var DetailColumns = []string{"チケット番号", "内容", "スコア", "作成日時", "言語"}

// DetailRow holds the display strings of one filtered record. Missing values are empty.
type DetailRow struct {
	TicketID  string
	Link      string
	Content   string
	Score     string
	CreatedAt string
	Locale    string
}

// Cells returns the row in DetailColumns order.
func (r DetailRow) Cells() []string {
	return []string{r.TicketID, r.Content, r.Score, r.CreatedAt, r.Locale}
}

type Dashboard struct {
	Source        string
	Title         string
	Selection     models.Selection
	MonthOptions  []string
	LocaleOptions []string
	Charts        []plot.Chart
	Rows          []DetailRow
	Summary       stats.Summary
	Scores        *stats.ScoreStats
}

// Chart looks up a chart by id.
func (d *Dashboard) Chart(id string) (plot.Chart, bool) {
	for _, c := range d.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return plot.Chart{}, false
}

// Build filters the table by sel and aggregates the result. Unknown selector values
// fall back to "all".
func Build(table *models.Table, sel models.Selection, cfg *config.Config) *Dashboard {
	if table == nil {
		table = &models.Table{}
	}
	sel = stats.ResolveSelection(table, sel)
	rows := stats.Filter(table.Rows, sel)
	summary := stats.Summarize(rows, cfg.FreeTextMarker)

	dash := &Dashboard{
		Source:        table.Source,
		Title:         fmt.Sprintf("%s の %s のユーザー評価", sel.Month, sel.Locale),
		Selection:     sel,
		MonthOptions:  append([]string{stats.AllMonths}, table.Months...),
		LocaleOptions: append([]string{stats.AllLocales}, table.Locales...),
		Summary:       summary,
		Scores:        stats.DescribeScores(rows),
	}

	if stats.IsAll(sel.Month) {
		dash.Charts = append(dash.Charts,
			plot.Chart{ID: ChartMonthlyMean, Kind: plot.KindLine, Title: "月別平均スコア",
				XAxisName: "月", YAxisName: "平均スコア", Rows: summary.MonthlyMean, Decimals: 2},
			plot.Chart{ID: ChartMonthlyCount, Kind: plot.KindBar, Title: "月別チケット件数",
				XAxisName: "月", YAxisName: "件数", Rows: summary.MonthlyCount},
		)
	}
	dash.Charts = append(dash.Charts,
		plot.Chart{ID: ChartLocaleMean, Kind: plot.KindBar, Title: sel.Locale + " の言語別平均スコア",
			XAxisName: "言語", YAxisName: "平均スコア", Rows: summary.LocaleMean, Decimals: 2},
		plot.Chart{ID: ChartContentMean, Kind: plot.KindBar, Title: "各質問の平均スコア",
			XAxisName: "質問", YAxisName: "平均スコア", Rows: summary.ContentMean, Decimals: 2},
		plot.Chart{ID: ChartLocaleCount, Kind: plot.KindBar, Title: sel.Locale + " の言語別チケット件数",
			XAxisName: "言語", YAxisName: "件数", Rows: summary.LocaleCount},
	)

	dash.Rows = make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		dash.Rows = append(dash.Rows, detailRow(row, cfg.AdminBaseURL))
	}
	return dash
}

func detailRow(row models.NormalizedRecord, baseURL string) DetailRow {
	detail := DetailRow{
		TicketID: row.TicketID,
		Content:  row.Text,
		Score:    row.Value,
	}
	if row.TicketID != "" {
		detail.Link = TicketURL(baseURL, row.TicketID)
	}
	if row.CreatedTime != nil {
		detail.CreatedAt = row.CreatedTime.Format(DisplayTimeFmt)
	}
	if row.LocaleName != nil {
		detail.Locale = *row.LocaleName
	}
	return detail
}

// TicketURL builds the admin link for a ticket id.
func TicketURL(baseURL, id string) string {
	return baseURL + "/tickets/" + url.PathEscape(id)
}
