package service

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// Forecaster fits a trend/seasonality model on rows and predicts every date on axis.
// Implementations delegate to an external modeling library or service.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error)
}
