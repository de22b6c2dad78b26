package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	WriteTimeout = 10 * time.Second
	// ReadTimeout bounds how long an idle client may stay silent; clients
	// keep the stream open with ping actions.
	ReadTimeout = 2 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return conn.WriteJSON(v)
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	return conn.ReadJSON(v)
}
