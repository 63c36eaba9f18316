// Package presentation turns dashboard views into charts, tables and text.
package presentation

import (
	"fmt"
	"io"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Chart kinds served by the dashboard.
const (
	ChartRaw        = "raw"
	ChartForecast   = "forecast"
	ChartComponents = "components"
)

// ErrNoForecast is returned when a forecast chart is requested for a view without one.
var ErrNoForecast = fmt.Errorf("no forecast in view")

const (
	colorOpen     = "#1f77b4"
	colorClose    = "#ff7f0e"
	colorActual   = "#e5e5e5"
	colorForecast = "#4c9be8"
	colorBand     = "#4c9be8"
	colorHidden   = "rgba(0,0,0,0)"
	missing       = "-"
)

// A zero line opacity is omitted when marshalled, so band edges are hidden by color.
var bandSeries = opts.LineChart{Stack: "band", Symbol: "none"}

func baseOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     types.ThemeChalk,
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price"}),
	}
}

// RawChart plots the open and close series with a range slider.
func RawChart(view *models.DashboardView) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOptions("Time Series Data")...)

	dates := make([]string, len(view.Raw))
	open := make([]opts.LineData, len(view.Raw))
	closing := make([]opts.LineData, len(view.Raw))
	for i, r := range view.Raw {
		dates[i] = util.FormatDate(r.Date)
		open[i] = priceData(r.Open.Valid, r.Open.Decimal.InexactFloat64())
		closing[i] = priceData(r.Close.Valid, r.Close.Decimal.InexactFloat64())
	}

	line.SetXAxis(dates).
		AddSeries("Stock Open", open, charts.WithLineStyleOpts(opts.LineStyle{Color: colorOpen})).
		AddSeries("Stock Close", closing, charts.WithLineStyleOpts(opts.LineStyle{Color: colorClose}))
	return line
}

// ForecastChart plots actual values, the prediction and its confidence band.
// The band is drawn as a transparent lower series with the band width stacked on top.
// Both band series stay out of the legend.
func ForecastChart(view *models.DashboardView) (*charts.Line, error) {
	if view.Forecast == nil || len(view.Forecast.Rows) == 0 {
		return nil, ErrNoForecast
	}
	rows := view.Forecast.Rows

	actual := make(map[string]float64, len(view.Training))
	for _, r := range view.Training {
		actual[util.FormatDate(r.DS)] = r.Y
	}

	dates := make([]string, len(rows))
	ys := make([]opts.LineData, len(rows))
	yhat := make([]opts.LineData, len(rows))
	lower := make([]opts.LineData, len(rows))
	width := make([]opts.LineData, len(rows))
	for i, r := range rows {
		d := util.FormatDate(r.DS)
		dates[i] = d
		y, ok := actual[d]
		ys[i] = priceData(ok, y)
		yhat[i] = opts.LineData{Value: r.YHat}
		lower[i] = opts.LineData{Value: r.YHatLower}
		width[i] = opts.LineData{Value: r.YHatUpper - r.YHatLower}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOptions(fmt.Sprintf("%s forecast (%d days)", view.Symbol, view.Forecast.HorizonDays)),
		charts.WithLegendOpts(opts.Legend{Show: true, Data: []string{"Forecast", "Actual"}}))...)
	line.SetXAxis(dates).
		AddSeries("Lower bound", lower,
			charts.WithLineChartOpts(bandSeries),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorHidden})).
		AddSeries("Confidence band", width,
			charts.WithLineChartOpts(bandSeries),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorHidden}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: colorBand, Opacity: 0.25})).
		AddSeries("Forecast", yhat, charts.WithLineStyleOpts(opts.LineStyle{Color: colorForecast})).
		AddSeries("Actual", ys, charts.WithLineStyleOpts(opts.LineStyle{Color: colorActual}))
	return line, nil
}

// ComponentsChart renders one panel per model component, trend first.
func ComponentsChart(view *models.DashboardView) (*components.Page, error) {
	if view.Forecast == nil || len(view.Forecast.Rows) == 0 {
		return nil, ErrNoForecast
	}
	rows := view.Forecast.Rows

	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = util.FormatDate(r.DS)
	}

	page := components.NewPage()
	page.PageTitle = "Forecast Components"
	for _, name := range view.Forecast.Components {
		data := make([]opts.LineData, len(rows))
		for i, r := range rows {
			if name == "trend" {
				data[i] = opts.LineData{Value: r.Trend}
				continue
			}
			v, ok := r.Seasonal[name]
			data[i] = priceData(ok, v)
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeChalk, Width: "100%", Height: "280px"}),
			charts.WithTitleOpts(opts.Title{Title: name}),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		)
		line.SetXAxis(dates).AddSeries(name, data)
		page.AddCharts(line)
	}
	return page, nil
}

// RenderChart writes the chart document of the given kind.
func RenderChart(w io.Writer, kind string, view *models.DashboardView) error {
	switch kind {
	case ChartRaw:
		return RawChart(view).Render(w)
	case ChartForecast:
		line, err := ForecastChart(view)
		if err != nil {
			return err
		}
		return line.Render(w)
	case ChartComponents:
		page, err := ComponentsChart(view)
		if err != nil {
			return err
		}
		return page.Render(w)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
}

func priceData(ok bool, v float64) opts.LineData {
	if !ok {
		return opts.LineData{Value: missing}
	}
	return opts.LineData{Value: v}
}
