package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/util"

	"github.com/shopspring/decimal"
)

// Yahoo fetches daily bars from the Yahoo Finance v8 chart API.
type Yahoo struct {
	client  *xhttp.Client
	baseURL string
}

// NewYahoo creates a Yahoo Finance fetcher.
func NewYahoo(client *xhttp.Client, baseURL string) *Yahoo {
	return &Yahoo{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily requests [start, end] inclusive; period2 is exclusive upstream so it is moved one day on.
func (y *Yahoo) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRow, error) {
	var resp yahooChart
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", y.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(util.DateOf(start).Unix(), 10)},
			"period2":  {strconv.FormatInt(util.AddDays(end, 1).Unix(), 10)},
			"interval": {"1d"},
			"events":   {"history"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return finish(symbol, nil)
	}

	res := resp.Chart.Result[0]
	q := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	rows := make([]models.PriceRow, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		// exchange-local calendar date
		day := util.DateOf(time.Unix(ts+res.Meta.GMTOffset, 0).UTC())
		if day.Before(util.DateOf(start)) || day.After(util.DateOf(end)) {
			continue
		}
		row := models.PriceRow{
			Date:     day,
			Open:     at(q.Open, i),
			High:     at(q.High, i),
			Low:      at(q.Low, i),
			Close:    at(q.Close, i),
			AdjClose: at(adj, i),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			row.Volume = *q.Volume[i]
		}
		rows = append(rows, row)
	}
	return finish(symbol, rows)
}

// at returns the i-th value or a missing price for nulls and short arrays.
func at(vals []*float64, i int) decimal.NullDecimal {
	if i >= len(vals) || vals[i] == nil {
		return models.MissingPrice
	}
	return models.Price(*vals[i])
}
