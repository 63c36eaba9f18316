package models

import "errors"

var (
	// ErrCatalog marks a missing or malformed catalog file.
	ErrCatalog = errors.New("catalog unavailable")
	// ErrSymbolNotFound means the selected name is not in the catalog.
	ErrSymbolNotFound = errors.New("stock not found in catalog")
	// ErrMarketData wraps provider failures after retries are exhausted.
	ErrMarketData = errors.New("market data unavailable")
	// ErrNoMarketData means the provider answered with zero rows.
	ErrNoMarketData = errors.New("no market data returned")
	// ErrInsufficientData is raised by the sufficiency gate.
	ErrInsufficientData = errors.New("not enough data to fit the model")
	// ErrModelFit wraps forecaster failures.
	ErrModelFit = errors.New("forecast model failed")
	// ErrModelOutput means the model returned rows that do not cover the requested axis.
	ErrModelOutput = errors.New("forecast model returned incomplete output")
)

const (
	NoticeInsufficientData = "Not enough data to fit the model. Please ensure you have at least 2 non-NaN rows of data."
	NoticeModelFailed      = "Forecast unavailable: the model could not be fitted to this series."
)

// ErrInvalidSelection means the requested horizon is outside 1..5 years.
var ErrInvalidSelection = errors.New("forecast horizon must be between 1 and 5 years")

const (
	MinYears = 1
	MaxYears = 5
)
