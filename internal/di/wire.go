//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/internal/usecase"
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

var dashboardSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideMetrics,

	// Memo table
	ProvideCacheStore,
	ProvideMemo,

	// Sources and model
	ProvideCatalog,
	ProvideMarketData,
	ProvideForecaster,
	ProvidePublisher,

	// Use cases
	ProvideSessions,
	ProvideDashboard,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		dashboardSet,
		ProvideScheduler,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeDashboard wires the pipeline alone, for one-shot command-line runs.
func InitializeDashboard(cfg *config.Config) (*usecase.Dashboard, func(), error) {
	wire.Build(dashboardSet)
	return nil, nil, nil
}
