package hub

import (
	"context"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Endpoint is one connected game client.
type Endpoint interface {
	ID() string
	Send(ctx context.Context, data []byte) error
	Close() error
}

// socketEndpoint adapts a WebSocket connection. coder/websocket allows concurrent
// writers, so broadcasts need no extra locking here.
type socketEndpoint struct {
	id   string
	conn *websocket.Conn
}

func newSocketEndpoint(conn *websocket.Conn) *socketEndpoint {
	return &socketEndpoint{
		id:   uuid.New().String(),
		conn: conn,
	}
}

func (e *socketEndpoint) ID() string {
	return e.id
}

func (e *socketEndpoint) Send(ctx context.Context, data []byte) error {
	return e.conn.Write(ctx, websocket.MessageText, data)
}

func (e *socketEndpoint) Close() error {
	return e.conn.Close(websocket.StatusNormalClosure, "")
}
