package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"math"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/features"

	forecaster "github.com/aouyang1/go-forecaster"
	"github.com/aouyang1/go-forecaster/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

type fakeModel struct {
	fitErr error
	fitT   []time.Time
	fitY   []float64
	short  bool
}

func (m *fakeModel) Fit(t []time.Time, y []float64) error {
	m.fitT, m.fitY = t, y
	return m.fitErr
}

func (m *fakeModel) Predict(t []time.Time) (*forecaster.Results, error) {
	n := len(t)
	if m.short {
		n--
	}
	res := &forecaster.Results{T: t[:n]}
	for i := 0; i < n; i++ {
		res.Forecast = append(res.Forecast, float64(i))
		res.Lower = append(res.Lower, float64(i)-1)
		res.Upper = append(res.Upper, float64(i)+1)
	}
	res.SeriesComponents = forecast.Components{
		Trend:       res.Forecast,
		Seasonality: make([]float64, n),
	}
	return res, nil
}

func newLocal(m *fakeModel) *LocalForecaster {
	return &LocalForecaster{newModel: func() (model, error) { return m, nil }}
}

func TestLocalForecasterMapsResults(t *testing.T) {
	m := &fakeModel{}
	rows := []models.TrainingRow{{DS: day(0), Y: 10}, {DS: day(1), Y: 11}}
	axis := []time.Time{day(0), day(1), day(2)}

	out, err := newLocal(m).Forecast(context.Background(), rows, axis)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 11}, m.fitY)
	require.Len(t, out, 3)
	assert.Equal(t, day(2), out[2].DS)
	assert.Equal(t, 2.0, out[2].YHat)
	assert.Equal(t, 1.0, out[2].YHatLower)
	assert.Equal(t, 3.0, out[2].YHatUpper)
	assert.Equal(t, 2.0, out[2].Trend)
	assert.Contains(t, out[2].Seasonal, SeasonalityComponent)
}

func TestLocalForecasterErrors(t *testing.T) {
	rows := []models.TrainingRow{{DS: day(0), Y: 10}, {DS: day(1), Y: 11}}
	axis := []time.Time{day(0), day(1), day(2)}

	_, err := newLocal(&fakeModel{fitErr: errors.New("singular")}).Forecast(context.Background(), rows, axis)
	assert.ErrorIs(t, err, models.ErrModelFit)

	_, err = newLocal(&fakeModel{short: true}).Forecast(context.Background(), rows, axis)
	assert.ErrorIs(t, err, models.ErrModelOutput)
}

func TestLocalForecasterTwoRows(t *testing.T) {
	rows := []models.TrainingRow{{DS: day(0), Y: 100}, {DS: day(1), Y: 102}}
	axis := features.FutureAxis(rows, 365)

	out, err := NewLocalForecaster().Forecast(context.Background(), rows, axis)
	require.NoError(t, err)
	require.Len(t, out, len(axis))

	assert.Equal(t, day(0), out[0].DS)
	assert.False(t, out[len(out)-1].DS.Before(day(366)))
	for _, r := range out {
		for _, v := range []float64{r.YHat, r.YHatLower, r.YHatUpper} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s", r.DS)
		}
	}
}

func TestHTTPForecaster(t *testing.T) {
	var got forecastReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"rows":[
			{"ds":"2024-01-01","yhat":10,"yhat_lower":9,"yhat_upper":11,"trend":9.5,"weekly":0.2,"weekly_lower":0.1,"weekly_upper":0.3,"yearly":0.3,"additive_terms":0.5},
			{"ds":"2024-01-02T00:00:00Z","yhat":11,"yhat_lower":10,"yhat_upper":12,"trend":10.5,"weekly":-0.2,"yearly":0.7}
		]}`))
	}))
	defer srv.Close()

	f := NewHTTPForecaster(srv.URL, time.Second, 1)
	out, err := f.Forecast(context.Background(),
		[]models.TrainingRow{{DS: day(0), Y: 10}},
		[]time.Time{day(0), day(1)})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, got.Dates)
	require.Len(t, got.History, 1)
	assert.Equal(t, "2024-01-01", got.History[0].DS)

	require.Len(t, out, 2)
	assert.Equal(t, day(1), out[1].DS)
	assert.Equal(t, 9.5, out[0].Trend)
	assert.Equal(t, map[string]float64{"weekly": 0.2, "yearly": 0.3}, out[0].Seasonal)
}

func TestHTTPForecasterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"rows":[{"ds":"2024-01-01","yhat":1,"yhat_lower":0,"yhat_upper":2}]}`))
	}))
	defer srv.Close()

	out, err := NewHTTPForecaster(srv.URL, time.Second, 2).Forecast(context.Background(), nil, []time.Time{day(0)})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPForecasterBadRequestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewHTTPForecaster(srv.URL, time.Second, 3).Forecast(context.Background(), nil, []time.Time{day(0)})
	assert.ErrorIs(t, err, models.ErrModelFit)
}
