package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/handler"
	"StockCast/internal/handler/handlertest"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, f *handlertest.Fixture) *websocket.Conn {
	t.Helper()
	return dialYears(t, f, 1)
}

func dialYears(t *testing.T, f *handlertest.Fixture, years int) *websocket.Conn {
	t.Helper()
	settings := handler.Settings{Cookies: handler.Cookies{Name: "sid", MaxAge: time.Hour}, DefaultYears: years}
	h := NewLiveHandler(xlogger.Nop(), f.Dash, settings)
	s := xhttp.NewServer([]xhttp.Handler{h}, xhttp.WithMetricsPath(""))
	ts := httptest.NewServer(s.Echo())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestLiveRunsEachSelection(t *testing.T) {
	f := handlertest.New(t, handlertest.History(30))
	conn := dial(t, f)

	selections := []models.ForecastRequest{
		{Name: "Apple", Years: 1},
		{Name: "Microsoft", Years: 4},
		{Name: "Apple"},
	}
	wantYears := []int{1, 4, 1}
	for i, sel := range selections {
		require.NoError(t, conn.WriteJSON(sel))

		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, TypeView, msg.Type)
		require.NotNil(t, msg.View)
		assert.Equal(t, sel.Name, msg.View.Selection.Name)
		assert.Equal(t, wantYears[i]*models.DaysPerYear, msg.View.Forecast.HorizonDays)
	}
	// one session: Apple is fetched once for the day
	assert.Equal(t, 2, f.Market.Calls())
	assert.Equal(t, 3, f.Model.Calls())
}

func TestLiveReportsErrors(t *testing.T) {
	f := handlertest.New(t, handlertest.History(30))
	conn := dial(t, f)

	tests := []struct {
		req  models.ForecastRequest
		code string
	}{
		{models.ForecastRequest{Name: "Nokia", Years: 1}, "ERR_NOT_FOUND"},
		{models.ForecastRequest{Name: "Apple", Years: 7}, "ERR_BAD_REQUEST"},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteJSON(tt.req))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, TypeError, msg.Type)
		assert.Equal(t, tt.code, msg.Code)
	}

	// the connection survives errors
	require.NoError(t, conn.WriteJSON(models.ForecastRequest{Years: 2}))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeView, msg.Type)
	assert.Equal(t, "Apple", msg.View.Selection.Name)
}

func TestLiveConfiguredDefaultYears(t *testing.T) {
	conn := dialYears(t, handlertest.New(t, handlertest.History(30)), 3)

	for _, raw := range []string{`{"name":"Apple"}`, `{"name":"Apple","years":0}`} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, TypeView, msg.Type, raw)
		assert.Equal(t, 3*models.DaysPerYear, msg.View.Forecast.HorizonDays, raw)
	}

	require.NoError(t, conn.WriteJSON(models.ForecastRequest{Name: "Apple", Years: 2}))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 2*models.DaysPerYear, msg.View.Forecast.HorizonDays)
}
