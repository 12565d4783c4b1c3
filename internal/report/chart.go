package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wonny/quantperf/internal/contracts"
)

// RenderCumulativeChart renders a PNG line chart of a backtest.
// Two series: Cumulative Return (blue solid) and Drawdown (red dashed), both in percent.
// drawdown may be nil. Returns raw PNG bytes.
func RenderCumulativeChart(title string, cumulative, drawdown []contracts.SeriesPoint) ([]byte, error) {
	if len(cumulative) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(cumulative))
	}

	xValues, cumY := percentSeries(cumulative)

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Cumulative Return",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: cumY,
		},
	}

	if len(drawdown) >= 2 {
		ddX, ddY := percentSeries(drawdown)
		series = append(series, chart.TimeSeries{
			Name: "Drawdown",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("dc2626"), // red-600
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: ddX,
			YValues: ddY,
		})
	}

	if title == "" {
		title = "Backtest Performance"
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteChart renders the chart and writes it to path
func WriteChart(path, title string, cumulative, drawdown []contracts.SeriesPoint) error {
	png, err := RenderCumulativeChart(title, cumulative, drawdown)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// percentSeries splits points into x and y (fraction scaled to percent)
func percentSeries(points []contracts.SeriesPoint) ([]time.Time, []float64) {
	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		xValues[i] = p.Date
		yValues[i] = p.Value * 100
	}
	return xValues, yValues
}
