// Package plot renders aggregate rows as interactive echarts snippets or PNG images.
package plot

import (
	"errors"
	"fmt"
	"math"

	"github.com/pivolan/review_analyzer/domain/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// ErrNoData is returned by the PNG renderers for a chart without rows.
var ErrNoData = errors.New("chart has no data")

// Chart describes one dashboard chart independently of the rendering engine.
type Chart struct {
	ID        string
	Kind      Kind
	Title     string
	XAxisName string
	YAxisName string
	Rows      []models.AggregateRow
	// Decimals of the value labels: 2 for means, 0 for counts.
	Decimals int
}

func (c Chart) Labels() []string {
	labels := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		labels[i] = r.Key
	}
	return labels
}

func (c Chart) Values() []float64 {
	values := make([]float64, len(c.Rows))
	for i, r := range c.Rows {
		values[i] = r.Value
	}
	return values
}

// FormatValue renders a value the way the chart labels show it.
func (c Chart) FormatValue(v float64) string {
	return fmt.Sprintf("%.*f", c.Decimals, v)
}

// chartData adapts a Chart to the go-chart renderers.
type chartData struct {
	Chart
	xValues []string
	yValues []float64
}

func newChartData(c Chart) chartData {
	return chartData{Chart: c, xValues: c.Labels(), yValues: c.Values()}
}

func (d chartData) lenXValues() int {
	return len(d.xValues)
}

func (d chartData) calculateChartDimensions(minBarWidth float64) (width, height int) {
	if len(d.yValues) == 0 || d.lenXValues() <= 0 || minBarWidth <= 0 {
		return 0, 0
	}
	x := 1.1
	if d.lenXValues() < 2 {
		x = 3.0
	} else if d.lenXValues() < 10 {
		x = 2.0
	}

	const (
		paddingY     = 100
		spacingRatio = 0.2
		aspectRatio  = 9.0 / 16.0
	)

	barSpacing := minBarWidth * spacingRatio
	totalWidth := (minBarWidth+barSpacing)*float64(d.lenXValues()) + paddingY
	width = int(totalWidth*x) + paddingY
	height = int(float64(width) * aspectRatio)
	return width, height
}

func (d chartData) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.xValues))
	for i := range d.xValues {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: fmt.Sprintf("%s (%s)", d.xValues[i], d.FormatValue(d.yValues[i])),
			Style: chart.Style{
				FillColor: drawing.ColorFromHex("5470c6").WithAlpha(200),
			},
		})
	}
	return bars
}

// gridStep keeps count axes on whole numbers. The step follows the larger of |lo| and hi.
func (d chartData) gridStep(lo, hi float64) float64 {
	step := calculateGridStep(math.Max(math.Abs(lo), hi))
	if d.Decimals == 0 && step < 1 {
		step = 1
	}
	return step
}

// valueRange pads the data range so the tallest bar and its label fit.
func (d chartData) valueRange() (lo, hi float64) {
	lo = math.Min(0, findMinValue(d.yValues))
	hi = findMaxValue(d.yValues)
	if hi <= 0 {
		hi = 1
	}
	step := d.gridStep(lo, hi)
	hi = math.Ceil(hi/step)*step + step
	if lo < 0 {
		lo = math.Floor(lo/step) * step
	}
	return lo, hi
}

func (d chartData) generateGrid(lo, hi float64) []chart.Tick {
	step := d.gridStep(lo, hi)
	if step <= 0 {
		return nil
	}
	var ticks []chart.Tick
	for i := 0; ; i++ {
		v := lo + float64(i)*step
		if v > hi+step/2 {
			break
		}
		ticks = append(ticks, chart.Tick{
			Value: v,
			Label: d.FormatValue(v),
		})
	}
	return ticks
}

// categoryTicks places one tick per label at 0..n-1 and an unlabeled tick half a step
// outside each end. go-chart takes the x range from the ticks.
func (d chartData) categoryTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, d.lenXValues()+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, label := range d.xValues {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
	}
	return append(ticks, chart.Tick{Value: float64(d.lenXValues()) - 0.5})
}

func findMaxValue(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	max := y[0]
	for _, v := range y {
		if v > max {
			max = v
		}
	}
	return max
}

func findMinValue(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	min := y[0]
	for _, v := range y {
		if v < min {
			min = v
		}
	}
	return min
}

// calculateGridStep picks a 1-2-5 style step for a maximum value.
func calculateGridStep(maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	if maxValue < 1e-10 {
		return 1e-10
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(maxValue)))
	normalized := maxValue / magnitude

	var step float64
	switch {
	case normalized <= 1:
		step = 0.2
	case normalized <= 2:
		step = 0.5
	case normalized <= 5:
		step = 1.0
	default:
		step = 2.0
	}

	finalStep := step * magnitude
	if finalStep >= 1000 {
		return math.Round(finalStep/100) * 100
	}
	if finalStep >= 100 {
		return math.Round(finalStep/10) * 10
	}
	return finalStep
}

func customizePaddingXBottom(values []chart.Value) int {
	count := 0
	for _, v := range values {
		if n := len([]rune(v.Label)); n > count {
			count = n
		}
	}
	return count * 14
}
