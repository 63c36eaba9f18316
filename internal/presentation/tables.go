package presentation

import (
	"strconv"
	"strings"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"

	"github.com/shopspring/decimal"
)

// Table is a rendered grid of strings.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RawTable lists price rows; missing prices render as "NaN".
func RawTable(rows []models.PriceRow) Table {
	t := Table{Headers: []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			util.FormatDate(r.Date),
			price(r.Open),
			price(r.High),
			price(r.Low),
			price(r.Close),
			price(r.AdjClose),
			strconv.FormatInt(r.Volume, 10),
		})
	}
	return t
}

// ForecastTable lists forecast rows with trend and seasonal columns.
func ForecastTable(fc *models.Forecast, rows []models.ForecastRow) Table {
	t := Table{Headers: []string{"ds", "yhat", "yhat_lower", "yhat_upper"}}
	if fc == nil {
		return t
	}
	t.Headers = append(t.Headers, fc.Components...)
	for _, r := range rows {
		line := []string{
			util.FormatDate(r.DS),
			num(r.YHat),
			num(r.YHatLower),
			num(r.YHatUpper),
		}
		for _, c := range fc.Components {
			if c == "trend" {
				line = append(line, num(r.Trend))
				continue
			}
			line = append(line, num(r.Seasonal[c]))
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}

// Markdown renders the table as a GitHub-flavored markdown table.
func (t Table) Markdown() string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", `\|`))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range t.Rows {
		writeRow(r)
	}
	return b.String()
}

func price(d decimal.NullDecimal) string {
	if !d.Valid {
		return "NaN"
	}
	return d.Decimal.StringFixed(2)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
