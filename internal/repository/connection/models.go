package connection

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection is one realtime session bound to a room and an identity. All
// writes go through Send, which serializes them so deliveries to a single
// connection never interleave.
type Connection struct {
	Id       string
	RoomId   string
	MemberId string
	Role     string

	conn *websocket.Conn
	mu   sync.Mutex
}

func New(id, roomId, memberId, role string, conn *websocket.Conn) *Connection {
	return &Connection{
		Id:       id,
		RoomId:   roomId,
		MemberId: memberId,
		Role:     role,
		conn:     conn,
	}
}

func (c *Connection) Send(data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
