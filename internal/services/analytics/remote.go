package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/pkg/util"
)

// HTTPForecaster delegates fitting to an external decomposition service.
type HTTPForecaster struct {
	base     *HTTPServiceBase
	attempts int
}

// NewHTTPForecaster creates a client for the service at baseURL.
func NewHTTPForecaster(baseURL string, timeout time.Duration, attempts int) *HTTPForecaster {
	return &HTTPForecaster{base: NewHTTPServiceBase(baseURL, timeout), attempts: attempts}
}

func (f *HTTPForecaster) Name() string { return "remote" }

type historyPoint struct {
	DS string  `json:"ds"`
	Y  float64 `json:"y"`
}

type forecastReq struct {
	History []historyPoint `json:"history"`
	Dates   []string       `json:"dates"`
}

type forecastResp struct {
	Rows []map[string]json.RawMessage `json:"rows"`
}

// columns that are never seasonal components
var nonSeasonal = map[string]bool{
	"ds": true, "yhat": true, "yhat_lower": true, "yhat_upper": true, "trend": true,
	"additive_terms": true, "multiplicative_terms": true,
}

func (f *HTTPForecaster) Forecast(ctx context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error) {
	req := forecastReq{
		History: make([]historyPoint, len(rows)),
		Dates:   make([]string, len(axis)),
	}
	for i, r := range rows {
		req.History[i] = historyPoint{DS: util.FormatDate(r.DS), Y: r.Y}
	}
	for i, d := range axis {
		req.Dates[i] = util.FormatDate(d)
	}

	var resp forecastResp
	if err := f.base.PostJSONWithRetry(ctx, "/forecast", req, &resp, f.attempts); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelFit, err)
	}

	out := make([]models.ForecastRow, 0, len(resp.Rows))
	for i, raw := range resp.Rows {
		row, err := decodeRow(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", models.ErrModelOutput, i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// decodeRow reads a Prophet-shaped row; remaining numeric columns become seasonal components.
func decodeRow(raw map[string]json.RawMessage) (models.ForecastRow, error) {
	var row models.ForecastRow

	var ds string
	if err := json.Unmarshal(raw["ds"], &ds); err != nil {
		return row, fmt.Errorf("ds: %w", err)
	}
	t, ok := util.ParseTime(ds)
	if !ok {
		return row, fmt.Errorf("ds: bad date %q", ds)
	}
	row.DS = util.DateOf(t)

	for key, dst := range map[string]*float64{
		"yhat":       &row.YHat,
		"yhat_lower": &row.YHatLower,
		"yhat_upper": &row.YHatUpper,
		"trend":      &row.Trend,
	} {
		v, present := raw[key]
		if !present {
			if key == "trend" {
				continue
			}
			return row, fmt.Errorf("missing %s", key)
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return row, fmt.Errorf("%s: %w", key, err)
		}
	}

	for key, v := range raw {
		if nonSeasonal[key] || strings.HasSuffix(key, "_lower") || strings.HasSuffix(key, "_upper") {
			continue
		}
		var x float64
		if err := json.Unmarshal(v, &x); err != nil {
			continue
		}
		if row.Seasonal == nil {
			row.Seasonal = make(map[string]float64)
		}
		row.Seasonal[key] = x
	}
	return row, nil
}

var _ domsvc.Forecaster = (*HTTPForecaster)(nil)
