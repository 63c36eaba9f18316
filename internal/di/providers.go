package di

import (
	"context"
	"fmt"

	domrepo "StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/handler"
	"StockCast/internal/handler/api"
	"StockCast/internal/handler/web"
	"StockCast/internal/handler/ws"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/marketdata"
	"StockCast/internal/service/scheduler"
	"StockCast/internal/services/analytics"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCacheStore creates the memo backing store: in-process, or Redis behind an in-process L1.
func ProvideCacheStore(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	mem := []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		cache.WithMemoryCleanup(cfg.Cache.SweepInterval),
	}
	if !cfg.Cache.Redis.Enabled {
		store := cache.NewMemoryCache(mem...)
		return store, func() { _ = store.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	store := cache.NewLayeredCache(rc, cache.WithLayeredMemory(mem...))
	l.Info("memo store: redis", applogger.String("addr", cfg.Cache.Redis.Addr))
	return store, func() { _ = store.Close() }, nil
}

// ProvideMemo creates the memo table and reports lookups to metrics.
func ProvideMemo(cfg *config.Config, store cache.Service, m domrepo.Metrics) *cache.Memo {
	memo := cache.NewMemo(store, cfg.Cache.TTL)
	memo.Observe = m.RecordMemo
	return memo
}

// ProvideCatalog creates the catalog service over the CSV file.
func ProvideCatalog(cfg *config.Config, memo *cache.Memo) *usecase.CatalogService {
	return usecase.NewCatalogService(internalrepo.NewCSVCatalog(cfg.Catalog.Path), memo, cfg.Catalog.Path)
}

// ProvideMarketData creates the configured market-data provider.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) (domrepo.MarketData, error) {
	md, err := marketdata.New(cfg, l.With(applogger.String("component", "marketdata")))
	if err != nil {
		return nil, fmt.Errorf("market data: %w", err)
	}
	return md, nil
}

// ProvideForecaster creates the in-process model or the remote model client.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	if cfg.Forecast.Model == "remote" {
		return analytics.Instrument(analytics.NewHTTPForecaster(cfg.Forecast.ServiceURL, cfg.Forecast.Timeout, cfg.Forecast.Attempts))
	}
	return analytics.Instrument(analytics.NewLocalForecaster())
}

// ProvidePublisher creates the Kafka run-event publisher, or a no-op one when events are off.
func ProvidePublisher(cfg *config.Config) (domrepo.Publisher, func(), error) {
	if !cfg.Events.Enabled {
		return domrepo.NoopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithTopic(cfg.Events.Topic),
		pkgkafka.WithAsync(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaRunPublisher(producer)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideSessions creates the session registry.
func ProvideSessions(cfg *config.Config) *usecase.Sessions {
	return usecase.NewSessions(cfg.Session.IdleTTL)
}

// ProvideDashboard creates the dashboard pipeline.
func ProvideDashboard(
	cfg *config.Config,
	catalog *usecase.CatalogService,
	market domrepo.MarketData,
	model domsvc.Forecaster,
	memo *cache.Memo,
	sessions *usecase.Sessions,
	pub domrepo.Publisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Dashboard {
	return usecase.NewDashboard(catalog, market, model, memo, sessions,
		usecase.WithStartDate(cfg.StartDate()),
		usecase.WithTailRows(cfg.Forecast.TailRows),
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithLogger(l.With(applogger.String("component", "dashboard"))),
	)
}

// ProvideScheduler creates the maintenance scheduler: nightly fetch purge and session sweep.
func ProvideScheduler(cfg *config.Config, dash *usecase.Dashboard, l *applogger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(dash, l.With(applogger.String("component", "scheduler")))
	if err := s.Register(usecase.FnFetch, cfg.Cache.InvalidateCron, cfg.Session.SweepCron); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHandlers creates every HTTP handler.
func ProvideHandlers(cfg *config.Config, dash *usecase.Dashboard, l *applogger.Logger) ([]xhttp.Handler, error) {
	settings := handler.Settings{
		Cookies:      handler.Cookies{Name: cfg.Session.CookieName, MaxAge: cfg.Session.IdleTTL},
		DefaultYears: cfg.Forecast.DefaultYears,
	}
	page, err := web.NewDashboardHandler(l, dash, settings)
	if err != nil {
		return nil, fmt.Errorf("dashboard page: %w", err)
	}
	return []xhttp.Handler{
		page,
		api.NewDashboardEchoHandler(l, dash, settings),
		ws.NewLiveHandler(l, dash, settings),
	}, nil
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideApp creates the application server.
// Startup fails when the catalog cannot be read.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, sched *scheduler.Scheduler, dash *usecase.Dashboard, l *applogger.Logger) *server.App {
	return server.New(srv, sched, l,
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithWarmup(func(ctx context.Context) error {
			entries, err := dash.Catalog().Entries(ctx)
			if err != nil {
				return err
			}
			l.Info("catalog loaded", applogger.Int("stocks", len(entries)), applogger.String("path", cfg.Catalog.Path))
			return nil
		}),
	)
}
