package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/analytics"
	"StockCast/pkg/cache"
	"StockCast/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 14, 15, 30, 0, 0, time.UTC)

type staticCatalog []models.CatalogEntry

func (c staticCatalog) Load(context.Context) ([]models.CatalogEntry, error) { return c, nil }

type fakeMarket struct {
	mu    sync.Mutex
	rows  []models.PriceRow
	err   error
	calls int
	start time.Time
	end   time.Time
}

func (f *fakeMarket) Name() string { return "fake" }

func (f *fakeMarket) FetchDaily(_ context.Context, _ string, start, end time.Time) ([]models.PriceRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeMarket) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeModel struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	err      error
	drop     int
	skip     int
	delay    time.Duration
}

func (m *fakeModel) Name() string { return "fake-model" }

func (m *fakeModel) Forecast(_ context.Context, rows []models.TrainingRow, axis []time.Time) ([]models.ForecastRow, error) {
	m.calls.Add(1)
	if m.inFlight.Add(1) > 1 {
		m.overlap.Store(true)
	}
	defer m.inFlight.Add(-1)
	time.Sleep(m.delay)

	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.ForecastRow, 0, len(axis))
	for i := len(axis) - 1 - m.drop; i >= m.skip; i-- {
		y := float64(i)
		// bounds deliberately swapped and unsorted
		out = append(out, models.ForecastRow{
			DS:        axis[i],
			YHat:      y,
			YHatLower: y + 1,
			YHatUpper: y - 1,
			Trend:     y,
			Seasonal:  map[string]float64{"weekly": 0.1, "yearly": 0.2},
		})
	}
	return out, nil
}

func history(n int, withMissing bool) []models.PriceRow {
	rows := make([]models.PriceRow, n)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.PriceRow{
			Date:  first.AddDate(0, 0, i),
			Open:  models.Price(100 + float64(i)),
			Close: models.Price(101 + float64(i)),
		}
		if withMissing && i > 0 {
			rows[i].Close = models.MissingPrice
		}
	}
	return rows
}

type fixture struct {
	dash   *Dashboard
	market *fakeMarket
	model  *fakeModel
	memo   *cache.Memo
	clock  *time.Time
}

func newFixture(t *testing.T, rows []models.PriceRow) *fixture {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	memo := cache.NewMemo(store, time.Hour)

	f := &fixture{
		market: &fakeMarket{rows: rows},
		model:  &fakeModel{},
		memo:   memo,
	}
	now := today
	f.clock = &now

	catalog := NewCatalogService(staticCatalog{
		{Name: "Apple", Symbol: "AAPL"},
		{Name: "Microsoft", Symbol: "MSFT"},
	}, memo, "test")
	f.dash = NewDashboard(catalog, f.market, f.model, memo, NewSessions(time.Hour),
		WithClock(func() time.Time { return *f.clock }),
	)
	return f
}

const sid = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t, history(30, false))

	view, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 3})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", view.Symbol)
	assert.Equal(t, []string{"Apple", "Microsoft"}, view.Names)
	assert.Empty(t, view.Notice)
	assert.Len(t, view.Raw, 30)
	assert.Len(t, view.RawTail, 5)
	assert.Equal(t, view.Raw[25:], view.RawTail)
	assert.Equal(t, 30, view.TrainingRows)

	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), f.market.start)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), f.market.end)

	fc := view.Forecast
	require.NotNil(t, fc)
	assert.Equal(t, 3*365, fc.HorizonDays)
	assert.Len(t, fc.Rows, 30+3*365)
	assert.Equal(t, []string{"trend", "weekly", "yearly"}, fc.Components)
	assert.Len(t, view.ForecastTail, 5)

	lastTrain := view.Raw[len(view.Raw)-1].Date
	assert.Equal(t, lastTrain.AddDate(0, 0, 3*365), fc.Rows[len(fc.Rows)-1].DS)
	for i, r := range fc.Rows {
		require.LessOrEqual(t, r.YHatLower, r.YHat)
		require.LessOrEqual(t, r.YHat, r.YHatUpper)
		if i > 0 {
			require.True(t, r.DS.After(fc.Rows[i-1].DS))
		}
	}
}

func TestRunHorizonCoverage(t *testing.T) {
	for _, n := range []int{2, 10} {
		for years := models.MinYears; years <= models.MaxYears; years++ {
			f := newFixture(t, history(n, false))
			view, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: years})
			require.NoError(t, err)
			require.NotNil(t, view.Forecast)

			rows := view.Forecast.Rows
			assert.Equal(t, view.Raw[0].Date, rows[0].DS, "rows=%d years=%d", n, years)
			last := rows[len(rows)-1].DS
			want := view.Raw[len(view.Raw)-1].Date.AddDate(0, 0, years*365)
			assert.False(t, last.Before(want), "rows=%d years=%d", n, years)
		}
	}
}

func TestRunLocalModelTwoRows(t *testing.T) {
	f := newFixture(t, history(2, false))
	f.dash.model = analytics.NewLocalForecaster()

	view, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)
	assert.Empty(t, view.Notice)
	require.NotNil(t, view.Forecast)

	rows := view.Forecast.Rows
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].DS)
	assert.False(t, rows[len(rows)-1].DS.Before(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	for _, r := range rows {
		assert.LessOrEqual(t, r.YHatLower, r.YHat, "%s", r.DS)
		assert.LessOrEqual(t, r.YHat, r.YHatUpper, "%s", r.DS)
	}
}

func TestNormalizeForecastCoverage(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 0, 1)
	row := func(ds time.Time) models.ForecastRow {
		return models.ForecastRow{DS: ds, YHat: 1, YHatLower: 0, YHatUpper: 2}
	}

	tests := []struct {
		name string
		rows []models.ForecastRow
		ok   bool
	}{
		{"full span", []models.ForecastRow{row(first), row(last), row(last.AddDate(0, 0, 365))}, true},
		{"future only", []models.ForecastRow{row(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))}, false},
		{"history partly missing", []models.ForecastRow{row(last), row(last.AddDate(0, 0, 365))}, false},
		{"horizon short", []models.ForecastRow{row(first), row(last.AddDate(0, 0, 364))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeForecast(tt.rows, first, last, 365)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, models.ErrModelOutput)
		})
	}
}

func TestRunInsufficientDataSkipsModel(t *testing.T) {
	// three rows, two without a close: one usable point
	f := newFixture(t, history(3, true))

	view, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)

	assert.Equal(t, models.NoticeInsufficientData, view.Notice)
	assert.Len(t, view.Raw, 3)
	assert.Equal(t, 1, view.TrainingRows)
	assert.Nil(t, view.Forecast)
	assert.Equal(t, int32(0), f.model.calls.Load())
}

func TestRunFetchFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.market.err = models.ErrMarketData

	_, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
	assert.ErrorIs(t, err, models.ErrMarketData)
	assert.Equal(t, int32(0), f.model.calls.Load())

	// failures are not memoized
	f.market.err = nil
	f.market.rows = history(5, false)
	_, err = f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.market.Calls())
}

func TestRunModelFailureDegrades(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"fit error", &fakeModel{err: models.ErrModelFit}},
		{"short output", &fakeModel{drop: 10}},
		{"history not covered", &fakeModel{skip: 5}},
		{"future only", &fakeModel{skip: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, history(20, false))
			f.dash.model = tt.model

			view, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
			require.NoError(t, err)
			assert.Equal(t, models.NoticeModelFailed, view.Notice)
			assert.Nil(t, view.Forecast)
			assert.Len(t, view.Raw, 20)
		})
	}
}

func TestRunResolveErrors(t *testing.T) {
	f := newFixture(t, history(5, false))

	_, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Nokia", Years: 1})
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)

	_, err = f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 6})
	assert.ErrorIs(t, err, models.ErrInvalidSelection)

	view, err := f.dash.Run(context.Background(), sid, models.Selection{Years: 1})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", view.Symbol)
	assert.Equal(t, "Apple", view.Selection.Name)
}

func TestFetchMemoizedPerSessionAndDay(t *testing.T) {
	f := newFixture(t, history(5, false))
	ctx := context.Background()
	other := "9b2f4b1e-2a6c-4c35-8a59-0f6c5d3b7e21"

	run := func(session string, years int) {
		_, err := f.dash.Run(ctx, session, models.Selection{Name: "Apple", Years: years})
		require.NoError(t, err)
	}

	run(sid, 1)
	run(sid, 2)
	assert.Equal(t, 1, f.market.Calls(), "same session, symbol and day")

	run(other, 1)
	assert.Equal(t, 2, f.market.Calls(), "sessions do not share fetches")

	*f.clock = today.Add(24 * time.Hour)
	run(sid, 1)
	assert.Equal(t, 3, f.market.Calls(), "a new day refetches")

	require.NoError(t, f.dash.Invalidate(ctx, FnFetch))
	run(sid, 1)
	assert.Equal(t, 4, f.market.Calls())

	assert.ErrorIs(t, f.dash.Invalidate(ctx, "bogus"), ErrUnknownMemo)
}

func TestViewReusesLastRun(t *testing.T) {
	f := newFixture(t, history(5, false))
	ctx := context.Background()
	sel := models.Selection{Name: "Apple", Years: 1}

	first, err := f.dash.View(ctx, sid, sel)
	require.NoError(t, err)
	second, err := f.dash.View(ctx, sid, models.Selection{Years: 1})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.model.calls.Load())

	_, err = f.dash.View(ctx, sid, models.Selection{Name: "Apple", Years: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.model.calls.Load())
}

func TestRunsSerializedPerSession(t *testing.T) {
	f := newFixture(t, history(5, false))
	f.model.delay = 5 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), f.model.calls.Load())
	assert.False(t, f.model.overlap.Load())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domrepo.RunEvent
}

func (p *recordingPublisher) PublishRun(_ context.Context, ev domrepo.RunEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return errors.New("ignored")
}

func (p *recordingPublisher) Close() error { return nil }

func TestDashboardDefaultsDiscardEvents(t *testing.T) {
	f := newFixture(t, history(10, false))
	assert.IsType(t, domrepo.NoopPublisher{}, f.dash.publisher)
	assert.IsType(t, metrics.Nop{}, f.dash.metrics)

	_, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)
}

func TestRunPublishesEvents(t *testing.T) {
	f := newFixture(t, history(5, false))
	pub := &recordingPublisher{}
	f.dash.publisher = pub

	_, err := f.dash.Run(context.Background(), sid, models.Selection{Name: "Microsoft", Years: 1})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "MSFT", ev.Symbol)
	assert.Equal(t, OutcomeOK, ev.Outcome)
	assert.Equal(t, 5, ev.RawRows)
	assert.Equal(t, 5+365, ev.Forecasted)
	assert.Equal(t, sid, ev.Session)
}

func TestSweepSessionsDropsMemo(t *testing.T) {
	f := newFixture(t, history(5, false))
	ctx := context.Background()
	sessions := f.dash.Sessions()
	sessions.now = func() time.Time { return *f.clock }

	_, err := f.dash.Run(ctx, sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)

	*f.clock = today.Add(2 * time.Hour)
	assert.Equal(t, 1, f.dash.SweepSessions(ctx))
	assert.Equal(t, 0, sessions.Len())

	*f.clock = today
	_, err = f.dash.Run(ctx, sid, models.Selection{Name: "Apple", Years: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.market.Calls())
}
