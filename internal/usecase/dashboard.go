package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/features"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/util"
)

// Run outcomes reported to metrics and events.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient_data"
	OutcomeModelFailed  = "model_failed"
	OutcomeFetchFailed  = "fetch_failed"
	OutcomeNotFound     = "not_found"
)

// ErrUnknownMemo is returned when invalidating a function id that is not memoized.
var ErrUnknownMemo = errors.New("unknown memo function")

// Dashboard runs the fetch, prepare, gate, forecast pipeline for one selection.
type Dashboard struct {
	catalog   *CatalogService
	market    domrepo.MarketData
	model     domsvc.Forecaster
	memo      *cache.Memo
	sessions  *Sessions
	publisher domrepo.Publisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	start     time.Time
	tailRows  int
	now       func() time.Time
}

// DashboardOption configures Dashboard.
type DashboardOption func(*Dashboard)

// WithStartDate sets the first day of fetched history.
func WithStartDate(t time.Time) DashboardOption {
	return func(d *Dashboard) { d.start = t }
}

// WithTailRows sets how many trailing rows the tables show.
func WithTailRows(n int) DashboardOption {
	return func(d *Dashboard) {
		if n > 0 {
			d.tailRows = n
		}
	}
}

// WithClock overrides time.Now; "today" is derived from it.
func WithClock(now func() time.Time) DashboardOption {
	return func(d *Dashboard) { d.now = now }
}

// WithPublisher emits a run event after every run.
func WithPublisher(p domrepo.Publisher) DashboardOption {
	return func(d *Dashboard) { d.publisher = p }
}

// WithMetrics records stage latencies and outcomes.
func WithMetrics(m domrepo.Metrics) DashboardOption {
	return func(d *Dashboard) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) DashboardOption {
	return func(d *Dashboard) { d.log = l }
}

// NewDashboard wires the pipeline.
func NewDashboard(catalog *CatalogService, market domrepo.MarketData, model domsvc.Forecaster, memo *cache.Memo, sessions *Sessions, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		catalog:   catalog,
		market:    market,
		model:     model,
		memo:      memo,
		sessions:  sessions,
		publisher: domrepo.NoopPublisher{},
		metrics:   metrics.Nop{},
		log:       applogger.Nop(),
		start:     time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
		tailRows:  5,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sessions exposes the session registry.
func (d *Dashboard) Sessions() *Sessions { return d.sessions }

// Catalog exposes the catalog service.
func (d *Dashboard) Catalog() *CatalogService { return d.catalog }

// View returns the session's last view for sel, running the pipeline only when
// the session has none for that selection.
func (d *Dashboard) View(ctx context.Context, sessionID string, sel models.Selection) (*models.DashboardView, error) {
	sess := d.sessions.Get(sessionID)
	sess.run.Lock()
	defer sess.run.Unlock()

	entries, entry, err := d.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	sel.Name = entry.Name
	if v, ok := sess.LastView(sel); ok {
		return v, nil
	}
	return d.run(ctx, sess, entries, entry, sel)
}

// Run always re-executes the pipeline for sel in the given session.
// Results of the market-data fetch are still served from the memo table.
func (d *Dashboard) Run(ctx context.Context, sessionID string, sel models.Selection) (*models.DashboardView, error) {
	sess := d.sessions.Get(sessionID)
	sess.run.Lock()
	defer sess.run.Unlock()

	entries, entry, err := d.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	sel.Name = entry.Name
	return d.run(ctx, sess, entries, entry, sel)
}

func (d *Dashboard) resolve(ctx context.Context, sel models.Selection) ([]models.CatalogEntry, models.CatalogEntry, error) {
	if sel.Years < models.MinYears || sel.Years > models.MaxYears {
		return nil, models.CatalogEntry{}, fmt.Errorf("%w: got %d", models.ErrInvalidSelection, sel.Years)
	}
	entries, err := d.catalog.Entries(ctx)
	if err != nil {
		d.metrics.RecordError("catalog")
		return nil, models.CatalogEntry{}, err
	}
	entry, err := Resolve(entries, sel.Name)
	if err != nil {
		d.metrics.RecordError("resolve")
		d.metrics.RecordRun(OutcomeNotFound)
		return nil, models.CatalogEntry{}, err
	}
	return entries, entry, nil
}

func (d *Dashboard) run(ctx context.Context, sess *Session, entries []models.CatalogEntry, entry models.CatalogEntry, sel models.Selection) (*models.DashboardView, error) {
	began := d.now()
	today := util.DateOf(began)
	log := d.log.With(
		applogger.String("session", sess.ID),
		applogger.String("symbol", entry.Symbol),
		applogger.Int("years", sel.Years),
	)

	view := &models.DashboardView{
		Names:       models.Names(entries),
		Selection:   sel,
		Symbol:      entry.Symbol,
		Provider:    d.market.Name(),
		GeneratedAt: began,
	}

	raw, err := d.fetch(ctx, sess.ID, entry.Symbol, today)
	if err != nil {
		d.metrics.RecordError("market_data")
		log.Error("market data fetch failed", applogger.Error(err))
		d.finish(ctx, sess, view, OutcomeFetchFailed, began, false)
		return nil, err
	}
	view.Raw = raw
	view.RawTail = util.Tail(raw, d.tailRows)
	d.metrics.RecordRows(entry.Symbol, len(raw))

	training := features.PrepareSeries(raw)
	view.Training = training
	view.TrainingRows = len(training)
	view.Summary = features.Summarize(training)

	if err := features.CheckSufficiency(training); err != nil {
		log.Warn("insufficient data", applogger.Int("rows", len(training)))
		view.Notice = models.NoticeInsufficientData
		d.finish(ctx, sess, view, OutcomeInsufficient, began, true)
		return view, nil
	}

	horizon := sel.Period()
	stage := time.Now()
	rows, err := d.model.Forecast(ctx, training, features.FutureAxis(training, horizon))
	if err == nil {
		rows, err = normalizeForecast(rows, training[0].DS, training[len(training)-1].DS, horizon)
	}
	d.metrics.RecordLatency("forecast", time.Since(stage).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.metrics.RecordError("model")
		log.Error("forecast failed", applogger.String("model", d.model.Name()), applogger.Error(err))
		view.Notice = models.NoticeModelFailed
		d.finish(ctx, sess, view, OutcomeModelFailed, began, true)
		return view, nil
	}

	view.Forecast = &models.Forecast{
		Symbol:      entry.Symbol,
		HorizonDays: horizon,
		Model:       d.model.Name(),
		Rows:        rows,
		Components:  componentNames(rows),
	}
	view.ForecastTail = util.Tail(rows, d.tailRows)
	d.finish(ctx, sess, view, OutcomeOK, began, true)
	return view, nil
}

// fetch memoizes provider results per session, symbol and day.
func (d *Dashboard) fetch(ctx context.Context, sessionID, symbol string, today time.Time) ([]models.PriceRow, error) {
	stage := time.Now()
	defer func() { d.metrics.RecordLatency("fetch", time.Since(stage).Seconds()) }()

	args := []interface{}{sessionID, symbol, util.FormatDate(today)}
	return cache.Remember(ctx, d.memo, FnFetch, args, func(ctx context.Context) ([]models.PriceRow, error) {
		return d.market.FetchDaily(ctx, symbol, d.start, today)
	})
}

func (d *Dashboard) finish(ctx context.Context, sess *Session, view *models.DashboardView, outcome string, began time.Time, keep bool) {
	elapsed := d.now().Sub(began)
	d.metrics.RecordRun(outcome)
	d.metrics.RecordLatency("run", elapsed.Seconds())
	if keep {
		sess.setView(view)
	}

	ev := domrepo.RunEvent{
		Session:    sess.ID,
		Symbol:     view.Symbol,
		Name:       view.Selection.Name,
		Years:      view.Selection.Years,
		RawRows:    len(view.Raw),
		Training:   view.TrainingRows,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
		At:         began,
	}
	if view.Forecast != nil {
		ev.Forecasted = len(view.Forecast.Rows)
	}
	if err := d.publisher.PublishRun(ctx, ev); err != nil {
		d.log.Warn("publish run event failed", applogger.String("symbol", view.Symbol), applogger.Error(err))
	}
}

// Invalidate drops a memo namespace: "catalog", "fetch", or everything for "".
func (d *Dashboard) Invalidate(ctx context.Context, fn string) error {
	switch fn {
	case "", FnCatalog, FnFetch:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMemo, fn)
	}
	if err := d.memo.Invalidate(ctx, fn); err != nil {
		return fmt.Errorf("invalidate %q: %w", fn, err)
	}
	d.log.Info("memo invalidated", applogger.String("fn", fn))
	return nil
}

// SweepSessions drops idle sessions together with their memoized fetches.
func (d *Dashboard) SweepSessions(ctx context.Context) int {
	dropped := d.sessions.Sweep()
	for _, id := range dropped {
		if err := d.memo.InvalidatePrefix(ctx, FnFetch, id); err != nil {
			d.log.Warn("drop session memo failed", applogger.String("session", id), applogger.Error(err))
		}
	}
	return len(dropped)
}

// normalizeForecast orders bounds so lower <= yhat <= upper, sorts rows by date
// and checks that they span firstTrain through lastTrain+horizon days.
func normalizeForecast(rows []models.ForecastRow, firstTrain, lastTrain time.Time, horizon int) ([]models.ForecastRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", models.ErrModelOutput)
	}
	for i := range rows {
		r := &rows[i]
		if math.IsNaN(r.YHat) || math.IsNaN(r.YHatLower) || math.IsNaN(r.YHatUpper) {
			return nil, fmt.Errorf("%w: NaN at %s", models.ErrModelOutput, util.FormatDate(r.DS))
		}
		lo := math.Min(r.YHatLower, math.Min(r.YHat, r.YHatUpper))
		hi := math.Max(r.YHatLower, math.Max(r.YHat, r.YHatUpper))
		r.YHatLower, r.YHatUpper = lo, hi
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DS.Before(rows[j].DS) })

	if got := rows[0].DS; util.DateOf(got).After(util.DateOf(firstTrain)) {
		return nil, fmt.Errorf("%w: starts %s, want %s", models.ErrModelOutput, util.FormatDate(got), util.FormatDate(firstTrain))
	}
	want := util.AddDays(lastTrain, horizon)
	if got := rows[len(rows)-1].DS; got.Before(want) {
		return nil, fmt.Errorf("%w: ends %s, want %s", models.ErrModelOutput, util.FormatDate(got), util.FormatDate(want))
	}
	return rows, nil
}

// componentNames lists trend first, then seasonal components in name order.
func componentNames(rows []models.ForecastRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Seasonal {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return append([]string{"trend"}, names...)
}
