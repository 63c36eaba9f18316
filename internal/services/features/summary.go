package features

import (
	"math"

	"StockCast/internal/domain/models"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// ComputeLogReturns computes log returns r_t = ln(y_t / y_{t-1}).
// It returns a slice of length len(rows)-1, or nil if insufficient data.
func ComputeLogReturns(rows []models.TrainingRow) []float64 {
	if len(rows) < 2 {
		return nil
	}
	out := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Y, rows[i].Y
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized volatility over the latest window of returns.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// Summarize reports the headline numbers shown above the charts.
// Volatility uses up to one trading year of returns.
func Summarize(rows []models.TrainingRow) models.SeriesSummary {
	if len(rows) == 0 {
		return models.SeriesSummary{}
	}
	s := models.SeriesSummary{
		From:      rows[0].DS,
		To:        rows[len(rows)-1].DS,
		LastClose: rows[len(rows)-1].Y,
	}
	if len(rows) < 2 {
		return s
	}

	prev := rows[len(rows)-2].Y
	if prev != 0 {
		s.DayChangePct = (s.LastClose - prev) / prev * 100
	}
	rets := ComputeLogReturns(rows)
	s.Volatility = RealizedVolatility(rets, min(len(rets), TradingDaysPerYear), TradingDaysPerYear)
	return s
}
