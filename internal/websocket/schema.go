package websocket

import "github.com/stemsi/dropwatch/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError              Event = "error"
	EventConnected          Event = "connected"
	EventPredictionFinished Event = "prediction_finished"
	EventPong               Event = "pong"
)

// ConnectedResponse is sent once after the upgrade.
type ConnectedResponse struct {
	Event   Event `json:"event"`
	AdminID int   `json:"admin_id"`
}

// PredictionFinishedResponse relays one completed prediction run.
type PredictionFinishedResponse struct {
	Event Event                 `json:"event"`
	Run   model.PredictionEvent `json:"run"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
