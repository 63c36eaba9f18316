// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"

	"github.com/labstack/echo/v4"
)

// MapError converts pipeline errors to HTTP application errors.
func MapError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrSymbolNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidSelection), errors.Is(err, usecase.ErrUnknownMemo):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoMarketData):
		return xhttp.BadGatewayError("ERR_NO_MARKET_DATA", err.Error()).WithError(err)
	case errors.Is(err, models.ErrMarketData):
		return xhttp.BadGatewayError("ERR_MARKET_DATA", "market data unavailable, please retry later").WithError(err)
	case errors.Is(err, models.ErrCatalog):
		return xhttp.InternalError("stock catalog unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "request timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError(http.StatusText(http.StatusInternalServerError)).WithError(err)
	}
}

// Settings carries the deployment settings shared by the handlers.
type Settings struct {
	Cookies
	// DefaultYears fills the horizon of a request that omits it.
	DefaultYears int
}

// Years is the configured default horizon, or models.MinYears when unset.
func (s Settings) Years() int {
	if s.DefaultYears > 0 {
		return s.DefaultYears
	}
	return models.MinYears
}

// ForecastRequest returns a request prefilled with the configured defaults.
// Binding overwrites only the fields the client sends.
func (s Settings) ForecastRequest() *models.ForecastRequest {
	return &models.ForecastRequest{Years: s.Years()}
}

// Cookies reads and refreshes the session cookie.
type Cookies struct {
	Name   string
	MaxAge time.Duration
}

// SessionID returns the id sent by the client, or "" when absent.
func (ck Cookies) SessionID(c echo.Context) string {
	cookie, err := c.Cookie(ck.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes id back so the browser keeps using the same session.
func (ck Cookies) Set(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     ck.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ck.MaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session resolves the request's session and refreshes its cookie.
func (ck Cookies) Session(c echo.Context, sessions *usecase.Sessions) *usecase.Session {
	sess := sessions.Get(ck.SessionID(c))
	ck.Set(c, sess.ID)
	return sess
}
