package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pivolan/review_analyzer/stats"
)

// WriteSummary writes every chart of the dashboard as a plain text table.
func WriteSummary(w io.Writer, dash *Dashboard) error {
	header := table.NewWriter()
	header.SetTitle("%s", AppTitle)
	header.AppendRows([]table.Row{
		{"source", dash.Source},
		{"selection", dash.Title},
		{"rows", len(dash.Rows)},
	})
	header.SetStyle(table.StyleDefault)
	if _, err := fmt.Fprintln(w, header.Render()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if dash.Scores != nil {
		if _, err := fmt.Fprintf(w, "\n%s\n", scoreTable(dash.Scores)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	for _, c := range dash.Charts {
		t := table.NewWriter()
		t.SetTitle("%s", c.Title)
		t.AppendHeader(table.Row{c.XAxisName, c.YAxisName})
		for _, r := range c.Rows {
			t.AppendRow(table.Row{r.Key, c.FormatValue(r.Value)})
		}
		if len(c.Rows) == 0 {
			t.AppendRow(table.Row{"-", "-"})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		t.SetStyle(table.StyleDefault)
		if _, err := fmt.Fprintf(w, "\n%s\n", t.Render()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func scoreTable(s *stats.ScoreStats) string {
	t := table.NewWriter()
	t.SetTitle("スコア分布")
	t.AppendRows([]table.Row{
		{"count", s.Count},
		{"average", fmt.Sprintf("%.2f", s.Average)},
		{"median", fmt.Sprintf("%.2f", s.Median)},
		{"min", fmt.Sprintf("%.2f", s.Min)},
		{"max", fmt.Sprintf("%.2f", s.Max)},
	})
	for _, p := range stats.ScoreQuantiles {
		t.AppendRow(table.Row{fmt.Sprintf("p%g", p*100), fmt.Sprintf("%.2f", s.Quantiles[p])})
	}
	t.AppendRow(table.Row{"IQR", fmt.Sprintf("%.2f", s.IQR)})
	if len(s.Outliers) > 0 {
		t.AppendRow(table.Row{"outliers", fmt.Sprintf("%v", s.Outliers)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
