package presentation

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"StockCast/internal/domain/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Title is the dashboard heading.
const Title = "Stock Prediction App"

// Intro is shown under the title.
const Intro = `Welcome to the **Stock Prediction App**!
This application provides forecasts of stock prices based on historical data.
Please select a stock and choose the number of years for prediction.`

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts markdown to HTML for the page template.
func RenderHTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Report renders a view as a markdown document: summary, notice and trailing tables.
func Report(view *models.DashboardView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	fmt.Fprintf(&b, "**%s** (%s) via %s, forecast horizon %d year(s)\n\n",
		view.Selection.Name, view.Symbol, view.Provider, view.Selection.Years)

	s := view.Summary
	if view.TrainingRows > 0 {
		fmt.Fprintf(&b, "Last close **%.2f** (%+.2f%%), annualized volatility %.1f%%, %d rows from %s to %s\n\n",
			s.LastClose, s.DayChangePct, s.Volatility*100, view.TrainingRows,
			s.From.Format("2006-01-02"), s.To.Format("2006-01-02"))
	}
	if view.Notice != "" {
		fmt.Fprintf(&b, "> %s\n\n", view.Notice)
	}

	b.WriteString("## Raw Data\n\n")
	b.WriteString(RawTable(view.RawTail).Markdown())

	if view.Forecast != nil {
		b.WriteString("\n## Forecast Data\n\n")
		b.WriteString(ForecastTable(view.Forecast, view.ForecastTail).Markdown())
	}
	return b.String()
}
