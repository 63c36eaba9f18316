package models

// ForecastRequest is the query of a dashboard run.
type ForecastRequest struct {
	Name  string `query:"name" json:"name"`
	Years int    `query:"years" json:"years" default:"1" validate:"gte=1,lte=5"`
}

// Selection converts the request to a pipeline selection.
func (r ForecastRequest) Selection() Selection {
	return Selection{Name: r.Name, Years: r.Years}
}

// InvalidateRequest names the memo namespace to drop; empty drops everything.
type InvalidateRequest struct {
	Fn string `query:"fn" json:"fn" validate:"omitempty,oneof=catalog fetch"`
}
