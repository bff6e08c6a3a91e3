package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DefaultAssetsHost serves echarts.min.js when no host is configured.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Snippet is a chart fragment for embedding into a page that already loads echarts.
type Snippet struct {
	ID      string
	Element template.HTML
	Script  template.HTML
}

// ScriptURL returns the echarts bundle location under host.
func ScriptURL(host string) string {
	if host == "" {
		host = DefaultAssetsHost
	}
	return host + opts.EchartsJS
}

// Interactive renders c as a go-echarts snippet with value labels on every point.
func Interactive(c Chart) Snippet {
	labels := c.Labels()
	values := c.Values()

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: c.ID,
			Width:   "100%",
			Height:  "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:           opts.Bool(true),
			Trigger:        "axis",
			ValueFormatter: opts.FuncOpts(c.jsFormatter("v", "v")),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      c.XAxisName,
			AxisLabel: &opts.AxisLabel{Interval: "0", Rotate: rotation(labels)},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YAxisName}),
		charts.WithGridOpts(opts.Grid{ContainLabel: opts.Bool(true)}),
	}
	label := opts.Label{
		Show:      opts.Bool(true),
		Position:  "top",
		Formatter: opts.FuncOpts(c.jsFormatter("p", "p.value")),
	}

	var snippet Snippet
	switch c.Kind {
	case KindLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Name: labels[i], Value: v}
		}
		line.SetXAxis(labels).AddSeries(c.Title, data, charts.WithLabelOpts(label))
		rendered := line.RenderSnippet()
		snippet = toSnippet(c.ID, rendered.Element, rendered.Script)
	default:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		data := make([]opts.BarData, len(values))
		for i, v := range values {
			data[i] = opts.BarData{Name: labels[i], Value: v}
		}
		bar.SetXAxis(labels).AddSeries(c.Title, data, charts.WithLabelOpts(label))
		rendered := bar.RenderSnippet()
		snippet = toSnippet(c.ID, rendered.Element, rendered.Script)
	}
	return snippet
}

func (c Chart) jsFormatter(param, expr string) string {
	return fmt.Sprintf("function (%s) { return Number(%s).toFixed(%d); }", param, expr, c.Decimals)
}

// rotation tilts category labels once they get crowded.
func rotation(labels []string) float64 {
	total := 0
	for _, l := range labels {
		total += len([]rune(l))
	}
	if len(labels) > 6 || total > 40 {
		return 30
	}
	return 0
}

func toSnippet(id, element, script string) Snippet {
	return Snippet{ID: id, Element: template.HTML(element), Script: template.HTML(escapeScript(script))}
}

const scriptClose = "</script>"

// escapeScript rewrites <, > and & between the script tags as \u escapes. go-echarts
// writes the option JSON unescaped and these characters only occur inside its strings,
// so chart text can no longer end the script element.
func escapeScript(script string) string {
	open := strings.Index(script, ">")
	end := strings.LastIndex(script, scriptClose)
	if !strings.HasPrefix(strings.TrimSpace(script), "<script") || open < 0 || end <= open {
		var buf bytes.Buffer
		json.HTMLEscape(&buf, []byte(script))
		return buf.String()
	}
	var body bytes.Buffer
	json.HTMLEscape(&body, []byte(script[open+1:end]))
	return script[:open+1] + body.String() + script[end:]
}
