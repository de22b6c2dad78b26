package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/middleware"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/service"
	ws "github.com/stemsi/dropwatch/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams prediction run events to connected admins.
type WSHandler struct {
	events   *service.EventService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(events *service.EventService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// PredictionStream godoc
// WS /ws/v1/admin/predictions/stream?token=...
// Pushes a prediction_finished event for every completed run, whichever
// trigger started it. Clients may send {"action":"ping"} to keep alive.
func (h *WSHandler) PredictionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("admin_id", claims.AdminID).Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.events.Subscribe(ctx)
	defer sub.Close()

	// gorilla connections allow one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	if err := write(ws.ConnectedResponse{Event: ws.EventConnected, AdminID: claims.AdminID}); err != nil {
		return
	}
	wsLog.Info().Msg("Admin subscribed to prediction events")

	go func() {
		defer cancel()
		h.readLoop(conn, wsLog, write)
	}()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Prediction stream closed")
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev model.PredictionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed prediction event")
				continue
			}
			if err := write(ws.PredictionFinishedResponse{Event: ws.EventPredictionFinished, Run: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}
		}
	}
}

// readLoop answers client actions until the connection drops.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, write func(interface{}) error) {
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			if err := write(ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		default:
			if err := write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}); err != nil {
				return
			}
		}
	}
}
