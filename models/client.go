package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one websocket connection together with the authenticated
// identity behind it. writeMu serializes writes; gorilla/websocket supports
// only one concurrent writer per connection.
type Client struct {
	Conn      *websocket.Conn
	PlayerID  string // persistent identity from the JWT
	Name      string
	ConnID    string // per-connection id, changes on every reconnect
	RoomCode  string
	SessionID string
	writeMu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *Client) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}
