package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRow represents one daily OHLC record as delivered by a market-data provider.
// A price the provider did not report has Valid == false.
type PriceRow struct {
	Date     time.Time           `json:"date"`
	Open     decimal.NullDecimal `json:"open"`
	High     decimal.NullDecimal `json:"high"`
	Low      decimal.NullDecimal `json:"low"`
	Close    decimal.NullDecimal `json:"close"`
	AdjClose decimal.NullDecimal `json:"adj_close"`
	Volume   int64               `json:"volume"`
}

// TrainingRow is the (ds, y) schema consumed by the forecast model.
type TrainingRow struct {
	DS time.Time `json:"ds"`
	Y  float64   `json:"y"`
}

// Price builds a valid nullable decimal from a float.
func Price(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// MissingPrice is a price the provider did not report.
var MissingPrice = decimal.NullDecimal{}
