package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/handler"
	"StockCast/internal/handler/handlertest"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settings = handler.Settings{
	Cookies:      handler.Cookies{Name: "stockcast_session", MaxAge: time.Hour},
	DefaultYears: 1,
}

func newServer(f *handlertest.Fixture) *xhttp.Server {
	return newServerWith(f, settings)
}

func newServerWith(f *handlertest.Fixture, s handler.Settings) *xhttp.Server {
	h := NewDashboardEchoHandler(xlogger.Nop(), f.Dash, s)
	return xhttp.NewServer([]xhttp.Handler{h}, xhttp.WithMetricsPath(""))
}

func do(s *xhttp.Server, method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestStocks(t *testing.T) {
	s := newServer(handlertest.New(t, handlertest.History(10)))

	rec := do(s, http.MethodGet, "/api/stocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Rows  []models.CatalogEntry `json:"rows"`
			Total int64                 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Data.Total)
	assert.Equal(t, "AAPL", body.Data.Rows[0].Symbol)
}

func TestForecast(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		market error
		status int
		want   string
	}{
		{"defaults to first stock and one year", "", nil, http.StatusOK, `"horizon_days":365`},
		{"named stock", "?name=Microsoft&years=2", nil, http.StatusOK, `"symbol":"MSFT"`},
		{"unknown stock", "?name=Nokia", nil, http.StatusNotFound, `"code":"ERR_NOT_FOUND"`},
		{"horizon too long", "?years=9", nil, http.StatusBadRequest, `"field":"years"`},
		{"market down", "?name=Apple", models.ErrMarketData, http.StatusBadGateway, `"code":"ERR_MARKET_DATA"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := handlertest.New(t, handlertest.History(30))
			f.Market.Err = tt.market
			s := newServer(f)

			rec := do(s, http.MethodGet, "/api/forecast"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestForecastConfiguredDefaultYears(t *testing.T) {
	s := settings
	s.DefaultYears = 3
	srv := newServerWith(handlertest.New(t, handlertest.History(30)), s)

	rec := do(srv, http.MethodGet, "/api/forecast?name=Apple", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"horizon_days":1095`)

	rec = do(srv, http.MethodGet, "/api/forecast?name=Apple&years=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"horizon_days":730`)
}

func TestForecastKeepsSession(t *testing.T) {
	f := handlertest.New(t, handlertest.History(30))
	s := newServer(f)

	first := do(s, http.MethodGet, "/api/forecast?name=Apple", nil)
	require.Equal(t, http.StatusOK, first.Code)
	res := first.Result()
	defer res.Body.Close()
	require.NotEmpty(t, res.Cookies())
	sess := res.Cookies()[0]
	assert.Equal(t, "stockcast_session", sess.Name)

	second := do(s, http.MethodGet, "/api/forecast?name=Apple&years=3", sess)
	require.Equal(t, http.StatusOK, second.Code)

	// same session and day: the fetch is served from the memo table
	assert.Equal(t, 1, f.Market.Calls())
	assert.Equal(t, 2, f.Model.Calls())
	assert.Equal(t, 1, f.Dash.Sessions().Len())
}

func TestForecastModelFailureStillServesData(t *testing.T) {
	f := handlertest.New(t, handlertest.History(30))
	f.Model.Err = errors.New("singular matrix")
	s := newServer(f)

	rec := do(s, http.MethodGet, "/api/forecast?name=Apple", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.NoticeModelFailed)
	assert.NotContains(t, rec.Body.String(), `"forecast":`)
}

func TestInvalidate(t *testing.T) {
	f := handlertest.New(t, handlertest.History(30))
	s := newServer(f)

	rec := do(s, http.MethodGet, "/api/forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := rec.Result().Cookies()[0]

	rec = do(s, http.MethodPost, "/api/cache/invalidate?fn=fetch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invalidated":"fetch"`)

	rec = do(s, http.MethodGet, "/api/forecast", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.Market.Calls())

	rec = do(s, http.MethodPost, "/api/cache/invalidate?fn=everything", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
