package marketdata

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// barsClient is the part of the Alpaca market-data client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca fetches split-adjusted daily bars from the Alpaca market-data v2 API.
type Alpaca struct {
	client barsClient
	feed   string
}

// NewAlpaca creates an Alpaca fetcher for the given data feed ("iex" or "sip").
func NewAlpaca(apiKey, apiSecret, feed string) *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: feed,
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

// FetchDaily ignores ctx cancellation mid-request; the SDK call is not context aware.
func (a *Alpaca) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      util.DateOf(start),
		End:        util.AddDays(end, 1),
		Adjustment: marketdata.Split,
		Feed:       marketdata.Feed(a.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, err)
	}

	rows := make([]models.PriceRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, models.PriceRow{
			Date:     util.DateOf(b.Timestamp.In(newYork)),
			Open:     models.Price(b.Open),
			High:     models.Price(b.High),
			Low:      models.Price(b.Low),
			Close:    models.Price(b.Close),
			AdjClose: models.Price(b.Close),
			Volume:   int64(b.Volume),
		})
	}
	return finish(symbol, rows)
}

var newYork = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()
