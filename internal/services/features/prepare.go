// Package features turns provider rows into model-ready series.
package features

import (
	"fmt"
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"
)

// MinTrainingRows is the smallest series the forecaster accepts.
const MinTrainingRows = 2

// PrepareSeries projects rows to (ds=Date, y=Close), drops missing closes and
// returns the result sorted by ds. A repeated date keeps its last row.
func PrepareSeries(rows []models.PriceRow) []models.TrainingRow {
	out := make([]models.TrainingRow, 0, len(rows))
	for _, r := range rows {
		if !r.Close.Valid {
			continue
		}
		y, _ := r.Close.Decimal.Float64()
		out = append(out, models.TrainingRow{DS: util.DateOf(r.Date), Y: y})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DS.Before(out[j].DS) })

	dedup := out[:0]
	for _, r := range out {
		if n := len(dedup); n > 0 && dedup[n-1].DS.Equal(r.DS) {
			dedup[n-1] = r
			continue
		}
		dedup = append(dedup, r)
	}
	return dedup
}

// CheckSufficiency fails with models.ErrInsufficientData below MinTrainingRows.
func CheckSufficiency(rows []models.TrainingRow) error {
	if len(rows) < MinTrainingRows {
		return fmt.Errorf("%w: %d rows", models.ErrInsufficientData, len(rows))
	}
	return nil
}

// FutureAxis returns every history date followed by each calendar day after the last one,
// horizonDays of them.
func FutureAxis(rows []models.TrainingRow, horizonDays int) []time.Time {
	if horizonDays < 0 {
		horizonDays = 0
	}
	axis := make([]time.Time, 0, len(rows)+horizonDays)
	for _, r := range rows {
		axis = append(axis, r.DS)
	}
	if len(rows) == 0 {
		return axis
	}
	last := rows[len(rows)-1].DS
	for i := 1; i <= horizonDays; i++ {
		axis = append(axis, util.AddDays(last, i))
	}
	return axis
}
