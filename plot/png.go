package plot

import (
	"bytes"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LoadFont parses a TrueType font for the PNG renderers. go-chart's built-in
// Roboto has no CJK glyphs.
func LoadFont(path string) (*truetype.Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	font, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return font, nil
}

// DrawPNG renders c with the renderer matching its kind. font may be nil.
func DrawPNG(c Chart, font *truetype.Font) ([]byte, error) {
	if c.Kind == KindLine {
		return DrawLinePNG(c, font)
	}
	return DrawBarPNG(c, font)
}

func DrawBarPNG(c Chart, font *truetype.Font) ([]byte, error) {
	if len(c.Rows) == 0 {
		return nil, ErrNoData
	}
	data := newChartData(c)
	barValues := data.generateBarValues()
	paddingX := customizePaddingXBottom(barValues)
	width, height := data.calculateChartDimensions(100)
	lo, hi := data.valueRange()

	bar := chart.BarChart{
		Title: c.Title,
		Font:  font,
		Background: chart.Style{
			StrokeColor: chart.ColorBlack,
			Padding: chart.Box{
				Bottom: paddingX,
				Top:    50,
			},
		},
		Height:   height + 50,
		Width:    width + paddingX + 50,
		BarWidth: 60,
		Bars:     barValues,
		YAxis: chart.YAxis{
			Name: c.YAxisName,
			Range: &chart.ContinuousRange{
				Min: lo,
				Max: hi,
			},
			Style: chart.Style{
				StrokeWidth: 2,
				StrokeColor: chart.ColorBlack,
				FontSize:    17,
			},
			Ticks: data.generateGrid(lo, hi),
			GridMajorStyle: chart.Style{
				StrokeColor:     chart.ColorBlack,
				StrokeWidth:     1,
				DotWidth:        1,
				StrokeDashArray: []float64{5.0, 5.0},
			},
		},
		XAxis: chart.Style{
			StrokeWidth:         2,
			StrokeColor:         chart.ColorBlack,
			TextRotationDegrees: 88,
			FontSize:            17,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := bar.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart %s: %w", c.ID, err)
	}
	return buffer.Bytes(), nil
}

// DrawLinePNG plots the rows in order as evenly spaced categories with value annotations.
func DrawLinePNG(c Chart, font *truetype.Font) ([]byte, error) {
	if len(c.Rows) == 0 {
		return nil, ErrNoData
	}
	data := newChartData(c)
	lo, hi := data.valueRange()

	xValues := make([]float64, data.lenXValues())
	annotations := make([]chart.Value2, data.lenXValues())
	for i := range data.xValues {
		xValues[i] = float64(i)
		annotations[i] = chart.Value2{XValue: float64(i), YValue: data.yValues[i], Label: c.FormatValue(data.yValues[i])}
	}

	width, height := data.calculateChartDimensions(100)
	graph := chart.Chart{
		Title:  c.Title,
		Font:   font,
		Width:  width + 100,
		Height: height + 100,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  40,
				Bottom: 40,
			},
			FillColor:   drawing.ColorWhite,
			StrokeWidth: 1,
			StrokeColor: drawing.ColorFromHex("efefef"),
		},
		XAxis: chart.XAxis{
			Name:  c.XAxisName,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(data.lenXValues()) - 0.5},
			Ticks: data.categoryTicks(),
			Style: chart.Style{FontSize: 14},
		},
		YAxis: chart.YAxis{
			Name:  c.YAxisName,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			Ticks: data.generateGrid(lo, hi),
			GridMajorStyle: chart.Style{
				StrokeColor:     chart.ColorBlack,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5.0, 5.0},
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Title,
				XValues: xValues,
				YValues: data.yValues,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("5470c6"),
					StrokeWidth: 2,
					DotColor:    drawing.ColorFromHex("5470c6"),
					DotWidth:    4,
				},
			},
			chart.AnnotationSeries{Annotations: annotations},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart %s: %w", c.ID, err)
	}
	return buffer.Bytes(), nil
}
