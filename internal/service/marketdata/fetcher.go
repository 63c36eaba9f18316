// Package marketdata provides daily OHLC history from external providers.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

// New builds the provider named in cfg, wrapped with bounded retry.
func New(cfg *config.Config, l *applogger.Logger) (repository.MarketData, error) {
	md := cfg.MarketData
	client := xhttp.NewClient(
		xhttp.WithTimeout(md.Timeout),
		xhttp.WithProxy(md.Proxy),
	)

	var f repository.MarketData
	switch md.Provider {
	case "yahoo":
		f = NewYahoo(client, md.Yahoo.BaseURL)
	case "eodhd":
		f = NewEODHD(client, md.EODHD.BaseURL, md.EODHD.APIKey, md.EODHD.RateLimit)
	case "alpaca":
		f = NewAlpaca(md.Alpaca.APIKey, md.Alpaca.APISecret, md.Alpaca.Feed)
	default:
		return nil, fmt.Errorf("unknown market data provider %q", md.Provider)
	}

	return WithRetry(f, md.Retries, md.Backoff, l), nil
}

type retrying struct {
	next     repository.MarketData
	attempts int
	backoff  time.Duration
	log      *applogger.Logger
}

// WithRetry retries failed fetches up to attempts times in total, sleeping backoff*n between tries.
// An empty result is not retried. Exhausted retries wrap the last error in models.ErrMarketData.
func WithRetry(next repository.MarketData, attempts int, backoff time.Duration, l *applogger.Logger) repository.MarketData {
	if attempts < 1 {
		attempts = 1
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &retrying{next: next, attempts: attempts, backoff: backoff, log: l}
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRow, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		rows, err := r.next.FetchDaily(ctx, symbol, start, end)
		if err == nil {
			return rows, nil
		}
		if errors.Is(err, models.ErrNoMarketData) || !retryable(err) {
			return nil, wrapFetchErr(err)
		}
		lastErr = err

		r.log.Warn("market data fetch failed",
			applogger.String("provider", r.next.Name()),
			applogger.String("symbol", symbol),
			applogger.Int("attempt", attempt),
			applogger.Error(err),
		)
		if attempt == r.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, wrapFetchErr(ctx.Err())
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return nil, wrapFetchErr(lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

func wrapFetchErr(err error) error {
	if errors.Is(err, models.ErrNoMarketData) || errors.Is(err, models.ErrMarketData) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrMarketData, err)
}

// finish sorts rows by date, keeps the last row of any repeated date and rejects empty results.
func finish(symbol string, rows []models.PriceRow) ([]models.PriceRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w for %s", models.ErrNoMarketData, symbol)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	out := rows[:0]
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
