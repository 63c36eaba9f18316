package api

import (
	"net/http"

	"StockCast/internal/domain/models"
	"StockCast/internal/handler"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler serves the JSON API.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	settings handler.Settings
}

func NewDashboardEchoHandler(logger *xlogger.Logger, dash *usecase.Dashboard, settings handler.Settings) *DashboardEchoHandler {
	return &DashboardEchoHandler{logger: logger, dash: dash, settings: settings}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stocks", h.Stocks)
	g.GET("/forecast", h.Forecast)
	g.POST("/cache/invalidate", h.Invalidate)
}

// Stocks lists the catalog.
func (h *DashboardEchoHandler) Stocks(c echo.Context) error {
	entries, err := h.dash.Catalog().Entries(c.Request().Context())
	if err != nil {
		h.logger.Error("catalog load failed", xlogger.Error(err))
		return handler.MapError(err)
	}
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// Forecast runs the pipeline and returns the whole view.
func (h *DashboardEchoHandler) Forecast(c echo.Context) error {
	req := h.settings.ForecastRequest()
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sess := h.settings.Session(c, h.dash.Sessions())
	view, err := h.dash.Run(c.Request().Context(), sess.ID, req.Selection())
	if err != nil {
		return handler.MapError(err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, no-store")
	return xhttp.SuccessResponse(c, view)
}

// Invalidate drops a memo namespace.
func (h *DashboardEchoHandler) Invalidate(c echo.Context) error {
	// echo binds query parameters only for GET, DELETE and HEAD
	req := &models.InvalidateRequest{Fn: c.QueryParam("fn")}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.dash.Invalidate(c.Request().Context(), req.Fn); err != nil {
		h.logger.Error("memo invalidation failed", xlogger.String("fn", req.Fn), xlogger.Error(err))
		return handler.MapError(err)
	}
	fn := req.Fn
	if fn == "" {
		fn = "*"
	}
	return xhttp.DataResponse(c, http.StatusOK, map[string]string{"invalidated": fn})
}
