// Package web serves the HTML dashboard and its charts.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"StockCast/internal/domain/models"
	"StockCast/internal/handler"
	"StockCast/internal/presentation"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"pct": func(v float64) float64 { return v * 100 },
}).ParseFS(templateFS, "templates/*.html"))

// Renderer adapts the page templates to echo.
type Renderer struct {
	tmpl *template.Template
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type page struct {
	Title         string
	Intro         template.HTML
	Names         []string
	Selected      string
	Years         int
	MinYears      int
	MaxYears      int
	Error         string
	View          *models.DashboardView
	RawTable      presentation.Table
	ForecastTable presentation.Table
	Query         template.URL
}

// DashboardHandler renders the dashboard page.
type DashboardHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	settings handler.Settings
	intro    template.HTML
}

func NewDashboardHandler(logger *xlogger.Logger, dash *usecase.Dashboard, settings handler.Settings) (*DashboardHandler, error) {
	intro, err := presentation.RenderHTML(presentation.Intro)
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{logger: logger, dash: dash, settings: settings, intro: intro}, nil
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.Renderer = &Renderer{tmpl: pageTmpl}
	e.GET("/", h.Page)
	e.GET("/charts/:kind", h.Chart)
}

// Page runs the pipeline for the submitted selection and renders the result.
// Pipeline failures are shown on the page instead of an error document.
func (h *DashboardHandler) Page(c echo.Context) error {
	p := page{
		Title:    presentation.Title,
		Intro:    h.intro,
		MinYears: models.MinYears,
		MaxYears: models.MaxYears,
	}
	status := http.StatusOK

	entries, err := h.dash.Catalog().Entries(c.Request().Context())
	if err != nil {
		h.logger.Error("catalog load failed", xlogger.Error(err))
		return handler.MapError(err)
	}
	p.Names = models.Names(entries)

	req := h.settings.ForecastRequest()
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		p.Years = h.settings.Years()
		p.Error = verr[0].Message
		return c.Render(http.StatusBadRequest, "dashboard.html", p)
	}
	p.Selected, p.Years = req.Name, req.Years

	sess := h.settings.Session(c, h.dash.Sessions())
	view, err := h.dash.Run(c.Request().Context(), sess.ID, req.Selection())
	if err != nil {
		appErr := handler.MapError(err)
		status, p.Error = appErr.Status, appErr.Message
		return c.Render(status, "dashboard.html", p)
	}

	p.View = view
	p.Selected = view.Selection.Name
	p.RawTable = presentation.RawTable(view.RawTail)
	p.ForecastTable = presentation.ForecastTable(view.Forecast, view.ForecastTail)
	p.Query = template.URL(url.Values{
		"name":  {view.Selection.Name},
		"years": {strconv.Itoa(view.Selection.Years)},
	}.Encode())
	return c.Render(status, "dashboard.html", p)
}

// Chart renders one chart of the session's current view.
func (h *DashboardHandler) Chart(c echo.Context) error {
	kind := c.Param("kind")
	switch kind {
	case presentation.ChartRaw, presentation.ChartForecast, presentation.ChartComponents:
	default:
		return xhttp.NotFoundErrorf("unknown chart %q", kind)
	}

	req := h.settings.ForecastRequest()
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sess := h.settings.Session(c, h.dash.Sessions())
	view, err := h.dash.View(c.Request().Context(), sess.ID, req.Selection())
	if err != nil {
		return handler.MapError(err)
	}

	var buf bytes.Buffer
	if err := presentation.RenderChart(&buf, kind, view); err != nil {
		if errors.Is(err, presentation.ErrNoForecast) {
			return xhttp.NotFoundError(err.Error())
		}
		h.logger.Error("chart render failed", xlogger.String("kind", kind), xlogger.Error(err))
		return xhttp.InternalError("chart render failed").WithError(err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
