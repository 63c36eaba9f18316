package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/missing", func(c echo.Context) error { return NotFoundErrorf("no %s", "thing") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("kaput") })
	e.GET("/panic", func(c echo.Context) error { panic("oh no") })
}

func newTestServer(opts ...ServerOption) *Server {
	return NewServer([]Handler{pingHandler{}}, append([]ServerOption{WithMetricsPath("")}, opts...)...)
}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerRoutesAndErrors(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/healthz", http.StatusOK, `"status":"ok"`},
		{"/ping", http.StatusOK, `"data":"pong"`},
		{"/missing", http.StatusNotFound, `"code":"ERR_NOT_FOUND"`},
		{"/boom", http.StatusInternalServerError, `"code":"ERR_INTERNAL"`},
		{"/panic", http.StatusInternalServerError, `Internal Server Error`},
		{"/nope", http.StatusNotFound, `"code":"ERR_HTTP"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(s, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestServerRateLimit(t *testing.T) {
	s := newTestServer(WithRateLimit(0.001, 2))

	require.Equal(t, http.StatusOK, serve(s, "/ping").Code)
	require.Equal(t, http.StatusOK, serve(s, "/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, "/ping").Code)
	// health checks are never limited
	assert.Equal(t, http.StatusOK, serve(s, "/healthz").Code)
}
