package models

import "time"

// ForecastRow is one predicted point on the extended date axis.
type ForecastRow struct {
	DS        time.Time          `json:"ds"`
	YHat      float64            `json:"yhat"`
	YHatLower float64            `json:"yhat_lower"`
	YHatUpper float64            `json:"yhat_upper"`
	Trend     float64            `json:"trend"`
	Seasonal  map[string]float64 `json:"seasonal,omitempty"`
}

// Forecast bundles the model output for one run.
type Forecast struct {
	Symbol      string        `json:"symbol"`
	HorizonDays int           `json:"horizon_days"`
	Model       string        `json:"model"`
	Rows        []ForecastRow `json:"rows"`
	// Components lists the series available for the components chart, trend first.
	Components []string `json:"components"`
}

// Selection is the user's input for one run.
type Selection struct {
	Name  string `json:"name"`
	Years int    `json:"years"`
}

// DaysPerYear converts a horizon in years to days.
const DaysPerYear = 365

// Period returns the forecast horizon in days.
func (s Selection) Period() int { return s.Years * DaysPerYear }

// DashboardView is everything the presentation layer needs to render one run.
type DashboardView struct {
	Names        []string      `json:"names"`
	Selection    Selection     `json:"selection"`
	Symbol       string        `json:"symbol"`
	Provider     string        `json:"provider"`
	Raw          []PriceRow    `json:"raw"`
	RawTail      []PriceRow    `json:"raw_tail"`
	TrainingRows int           `json:"training_rows"`
	Summary      SeriesSummary `json:"summary"`
	Training     []TrainingRow `json:"-"`
	Forecast     *Forecast     `json:"forecast,omitempty"`
	ForecastTail []ForecastRow `json:"forecast_tail,omitempty"`
	Notice       string        `json:"notice,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// SeriesSummary holds headline statistics of the training series.
type SeriesSummary struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	LastClose    float64   `json:"last_close"`
	DayChangePct float64   `json:"day_change_pct"`
	// Volatility is annualized, as a fraction.
	Volatility float64 `json:"volatility"`
}
