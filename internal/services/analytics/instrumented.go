package analytics

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/service/metrics"
)

type instrumented struct {
	next domsvc.Forecaster
}

// Instrument records latency and failures of every Forecast call.
func Instrument(next domsvc.Forecaster) domsvc.Forecaster {
	metrics.Register()
	return &instrumented{next: next}
}

func (f *instrumented) Name() string { return f.next.Name() }

func (f *instrumented) Forecast(ctx context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error) {
	start := time.Now()
	out, err := f.next.Forecast(ctx, rows, axis)
	metrics.ModelLatency.WithLabelValues(f.next.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelErrors.WithLabelValues(f.next.Name()).Inc()
	}
	return out, err
}
