// Package ws pushes dashboard views over a websocket as the selection changes.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/handler"
	"StockCast/internal/usecase"
	xlogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

// Message types sent to the client.
const (
	TypeView  = "view"
	TypeError = "error"
)

// Message is one server push.
type Message struct {
	Type  string                `json:"type"`
	View  *models.DashboardView `json:"view,omitempty"`
	Code  string                `json:"code,omitempty"`
	Error string                `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// LiveHandler reruns the pipeline for every selection a client sends.
type LiveHandler struct {
	logger   *xlogger.Logger
	dash     *usecase.Dashboard
	settings handler.Settings
}

func NewLiveHandler(logger *xlogger.Logger, dash *usecase.Dashboard, settings handler.Settings) *LiveHandler {
	return &LiveHandler{logger: logger, dash: dash, settings: settings}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the connection and answers each {"name","years"} message with a view.
func (h *LiveHandler) Serve(c echo.Context) error {
	sess := h.dash.Sessions().Get(h.settings.SessionID(c))
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	log := h.logger.With(xlogger.String("session", sess.ID))
	log.Debug("websocket connected")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	var wmu sync.Mutex
	write := func(fn func() error) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return fn()
	}

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		req := *h.settings.ForecastRequest()
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", xlogger.Error(err))
			}
			return nil
		}
		if req.Years == 0 {
			req.Years = h.settings.Years()
		}

		msg := h.handle(ctx, sess.ID, req)
		if err := write(func() error { return conn.WriteJSON(msg) }); err != nil {
			log.Warn("websocket write failed", xlogger.Error(err))
			return nil
		}
	}
}

func (h *LiveHandler) handle(ctx context.Context, sessionID string, req models.ForecastRequest) Message {
	view, err := h.dash.Run(ctx, sessionID, req.Selection())
	if err != nil {
		appErr := handler.MapError(err)
		return Message{Type: TypeError, Code: appErr.Code, Error: appErr.Message}
	}
	return Message{Type: TypeView, View: view}
}
