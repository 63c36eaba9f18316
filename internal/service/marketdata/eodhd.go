package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/util"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// EODHD fetches end-of-day bars from eodhd.com.
type EODHD struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewEODHD creates an EODHD fetcher limited to requestsPerSecond outbound calls.
func NewEODHD(client *xhttp.Client, baseURL, apiKey string, requestsPerSecond int) *EODHD {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &EODHD{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (e *EODHD) Name() string { return "eodhd" }

type eodBar struct {
	Date          string           `json:"date"`
	Open          *decimal.Decimal `json:"open"`
	High          *decimal.Decimal `json:"high"`
	Low           *decimal.Decimal `json:"low"`
	Close         *decimal.Decimal `json:"close"`
	AdjustedClose *decimal.Decimal `json:"adjusted_close"`
	Volume        int64            `json:"volume"`
}

// FetchDaily requests the /eod endpoint. Symbols without an exchange suffix default to ".US".
func (e *EODHD) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRow, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("eodhd rate limit: %w", err)
	}

	ticker := symbol
	if !strings.Contains(ticker, ".") {
		ticker += ".US"
	}

	var bars []eodBar
	err := e.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/eod/%s", e.baseURL, ticker),
		QueryParams: map[string][]string{
			"api_token": {e.apiKey},
			"fmt":       {"json"},
			"period":    {"d"},
			"order":     {"a"},
			"from":      {util.FormatDate(start)},
			"to":        {util.FormatDate(end)},
		},
	}, &bars)
	if err != nil {
		return nil, fmt.Errorf("eodhd %s: %w", ticker, err)
	}

	rows := make([]models.PriceRow, 0, len(bars))
	for _, b := range bars {
		day, ok := util.ParseTime(b.Date)
		if !ok {
			continue
		}
		rows = append(rows, models.PriceRow{
			Date:     util.DateOf(day),
			Open:     nullable(b.Open),
			High:     nullable(b.High),
			Low:      nullable(b.Low),
			Close:    nullable(b.Close),
			AdjClose: nullable(b.AdjustedClose),
			Volume:   b.Volume,
		})
	}
	return finish(symbol, rows)
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return models.MissingPrice
	}
	return decimal.NewNullDecimal(*d)
}
