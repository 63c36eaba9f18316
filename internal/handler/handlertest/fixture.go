// Package handlertest builds dashboards backed by in-memory fakes for handler tests.
package handlertest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
)

// Catalog is a fixed catalog source.
type Catalog []models.CatalogEntry

func (c Catalog) Load(context.Context) ([]models.CatalogEntry, error) { return c, nil }

// Market serves fixed rows, or Err when set.
type Market struct {
	Rows  []models.PriceRow
	Err   error
	calls atomic.Int32
}

func (m *Market) Name() string { return "fake" }

func (m *Market) FetchDaily(context.Context, string, time.Time, time.Time) ([]models.PriceRow, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rows, nil
}

// Calls reports how many fetches reached the market.
func (m *Market) Calls() int { return int(m.calls.Load()) }

// Model predicts a straight line over the axis.
type Model struct {
	Err   error
	calls atomic.Int32
}

func (m *Model) Name() string { return "line" }

func (m *Model) Forecast(_ context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(rows) == 0 {
		return nil, errors.New("no rows")
	}
	out := make([]models.ForecastRow, len(axis))
	for i, ds := range axis {
		y := rows[0].Y + float64(i)
		out[i] = models.ForecastRow{
			DS: ds, YHat: y, YHatLower: y - 1, YHatUpper: y + 1, Trend: y,
			Seasonal: map[string]float64{"seasonality": 0},
		}
	}
	return out, nil
}

// Calls reports how many fits ran.
func (m *Model) Calls() int { return int(m.calls.Load()) }

// History returns n consecutive daily rows starting 2024-01-01.
func History(n int) []models.PriceRow {
	rows := make([]models.PriceRow, n)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.PriceRow{
			Date:  first.AddDate(0, 0, i),
			Open:  models.Price(100 + float64(i)),
			High:  models.Price(102 + float64(i)),
			Low:   models.Price(99 + float64(i)),
			Close: models.Price(101 + float64(i)),
		}
	}
	return rows
}

// Fixture bundles a dashboard with its fakes.
type Fixture struct {
	Dash   *usecase.Dashboard
	Market *Market
	Model  *Model
}

// New builds a dashboard over a two-company catalog and the given history.
func New(t *testing.T, rows []models.PriceRow) *Fixture {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	memo := cache.NewMemo(store, time.Hour)

	f := &Fixture{Market: &Market{Rows: rows}, Model: &Model{}}
	catalog := usecase.NewCatalogService(Catalog{
		{Name: "Apple", Symbol: "AAPL"},
		{Name: "Microsoft", Symbol: "MSFT"},
	}, memo, "test")
	now := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	f.Dash = usecase.NewDashboard(catalog, f.Market, f.Model, memo, usecase.NewSessions(time.Hour),
		usecase.WithClock(func() time.Time { return now }),
	)
	return f
}
