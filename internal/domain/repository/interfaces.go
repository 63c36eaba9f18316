package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// CatalogSource reads the static company catalog.
type CatalogSource interface {
	Load(ctx context.Context) ([]models.CatalogEntry, error)
}

// MarketData fetches daily OHLC history for a symbol over [start, end].
type MarketData interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRow, error)
}

// RunEvent describes one completed pipeline run.
type RunEvent struct {
	Session    string    `json:"session"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Years      int       `json:"years"`
	RawRows    int       `json:"raw_rows"`
	Training   int       `json:"training_rows"`
	Forecasted int       `json:"forecast_rows"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Publisher emits run events to an external sink.
type Publisher interface {
	PublishRun(ctx context.Context, ev RunEvent) error
	Close() error
}

// NoopPublisher drops events; used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRun(context.Context, RunEvent) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// Metrics records pipeline observations.
type Metrics interface {
	RecordError(kind string)
	RecordLatency(stage string, seconds float64)
	RecordRows(symbol string, rows int)
	RecordMemo(fn string, hit bool)
	RecordRun(outcome string)
}
