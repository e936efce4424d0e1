package chart

import (
	"bytes"
	"fmt"
	"time"

	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 1200
	defaultHeight = 600
)

var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	gridColor       = drawing.Color{R: 100, G: 100, B: 100, A: 128}

	// darkGrayBlue first, then one distinct color per extra ticker
	seriesColors = []drawing.Color{
		{R: 0, G: 122, B: 255, A: 255},
		{R: 255, G: 149, B: 0, A: 255},
		{R: 52, G: 199, B: 89, A: 255},
		{R: 255, G: 59, B: 48, A: 255},
		{R: 175, G: 82, B: 222, A: 255},
		{R: 90, G: 200, B: 250, A: 255},
		{R: 255, G: 204, B: 0, A: 255},
	}
)

// ErrNotEnoughData is returned when a series has fewer than two points
var ErrNotEnoughData = errors.New("not enough data points to draw a chart")

// PortfolioValue renders the total value series as a filled line chart
func PortfolioValue(series []types.ValuePoint, timeframeLabel string) ([]byte, error) {
	if len(series) < 2 {
		return nil, ErrNotEnoughData
	}

	xs := make([]time.Time, 0, len(series))
	ys := make([]float64, 0, len(series))
	for _, p := range series {
		xs = append(xs, p.Date)
		ys = append(ys, p.Value.InexactFloat64())
	}

	line := seriesColors[0]
	ts := chart.TimeSeries{
		Name:    "Total Portfolio Value",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: line,
			StrokeWidth: 2,
			FillColor:   line.WithAlpha(35),
		},
	}

	return render(fmt.Sprintf("Portfolio Value (%s)", timeframeLabel), []chart.Series{ts}, ys, dateFormat(xs), false)
}

// Performance renders each ticker's close series on one chart
func Performance(perTicker []types.HistoricalSeries) ([]byte, error) {
	var all []float64
	var allDates []time.Time
	series := make([]chart.Series, 0, len(perTicker))

	for i, s := range perTicker {
		if len(s.Bars) < 2 {
			continue
		}
		xs := make([]time.Time, 0, len(s.Bars))
		ys := make([]float64, 0, len(s.Bars))
		for _, b := range s.Bars {
			xs = append(xs, b.Date)
			ys = append(ys, b.Close.InexactFloat64())
		}
		all = append(all, ys...)
		allDates = append(allDates, xs...)

		series = append(series, chart.TimeSeries{
			Name:    s.Ticker,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: seriesColors[i%len(seriesColors)],
				StrokeWidth: 2,
			},
		})
	}

	if len(series) == 0 {
		return nil, ErrNotEnoughData
	}
	return render("Individual Stock Performance", series, all, dateFormat(allDates), true)
}

func render(title string, series []chart.Series, values []float64, xFormat string, legend bool) ([]byte, error) {
	minValue, maxValue := getMinMax(values)
	padding := (maxValue - minValue) * 0.1
	if padding == 0 {
		padding = maxValue*0.05 + 1
	}

	axisStyle := chart.Style{FontColor: textColor, StrokeColor: textColor, FontSize: 12}

	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: textColor, FontSize: 16},
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: chart.TimeValueFormatterWithFormat(xFormat),
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: minValue - padding, Max: maxValue + padding},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return "$" + helpers.FormatPriceUS(f, false)
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: series,
	}
	if legend {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render chart")
	}
	return buf.Bytes(), nil
}

// dateFormat picks a tick label layout suited to the time span
func dateFormat(dates []time.Time) string {
	if len(dates) == 0 {
		return "02-Jan"
	}
	first, last := dates[0], dates[0]
	for _, d := range dates {
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if last.Sub(first) > 365*24*time.Hour {
		return "Jan 2006"
	}
	return "02-Jan"
}

func getMinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 1
	}

	min, max = values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
