package analytics

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"

	forecaster "github.com/aouyang1/go-forecaster"
)

// SeasonalityComponent names the seasonal series produced by the local model.
const SeasonalityComponent = "seasonality"

// model is the fit/predict surface of the forecasting library.
type model interface {
	Fit(t []time.Time, y []float64) error
	Predict(t []time.Time) (*forecaster.Results, error)
}

// LocalForecaster fits an in-process trend plus seasonality model per request.
type LocalForecaster struct {
	newModel func() (model, error)
}

// NewLocalForecaster uses go-forecaster with its default options.
func NewLocalForecaster() *LocalForecaster {
	return &LocalForecaster{newModel: func() (model, error) {
		f, err := forecaster.New(nil)
		if err != nil {
			return nil, err
		}
		return f, nil
	}}
}

func (f *LocalForecaster) Name() string { return "local" }

func (f *LocalForecaster) Forecast(ctx context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := f.newModel()
	if err != nil {
		return nil, fmt.Errorf("%w: init: %v", models.ErrModelFit, err)
	}

	t := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		t[i], y[i] = r.DS, r.Y
	}
	if err := m.Fit(t, y); err != nil {
		return nil, fmt.Errorf("%w: fit: %v", models.ErrModelFit, err)
	}

	res, err := m.Predict(axis)
	if err != nil {
		return nil, fmt.Errorf("%w: predict: %v", models.ErrModelFit, err)
	}
	if len(res.Forecast) != len(axis) || len(res.Upper) != len(axis) || len(res.Lower) != len(axis) {
		return nil, fmt.Errorf("%w: %d predictions for %d dates", models.ErrModelOutput, len(res.Forecast), len(axis))
	}

	trend := res.SeriesComponents.Trend
	season := res.SeriesComponents.Seasonality
	out := make([]models.ForecastRow, len(axis))
	for i, ds := range axis {
		row := models.ForecastRow{
			DS:        ds,
			YHat:      res.Forecast[i],
			YHatLower: res.Lower[i],
			YHatUpper: res.Upper[i],
		}
		if i < len(trend) {
			row.Trend = trend[i]
		}
		if i < len(season) {
			row.Seasonal = map[string]float64{SeasonalityComponent: season[i]}
		}
		out[i] = row
	}
	return out, nil
}

var _ domsvc.Forecaster = (*LocalForecaster)(nil)
