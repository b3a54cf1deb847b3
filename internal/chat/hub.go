// Package chat manages WebSocket connections and the chat command protocol.
package chat

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with a write lock, since gorilla permits
// only one concurrent writer per connection.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteText sends one text message.
func (c *Conn) WriteText(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(message))
}

// ReadText blocks for the next text message.
func (c *Conn) ReadText() (string, error) {
	_, data, err := c.ws.ReadMessage()
	return string(data), err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// Hub tracks active connections and which username each is logged in as.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]string // empty string = not authenticated
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*Conn]string)}
}

// Register adds a connection in unauthenticated state.
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = ""
}

// Unregister drops a connection.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// SetUsername marks a connection as logged in. An empty name logs it out.
func (h *Hub) SetUsername(conn *Conn, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		h.conns[conn] = username
	}
}

// UsernameOf returns the username a connection is logged in as.
func (h *Hub) UsernameOf(conn *Conn) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[conn]
}

// ConnectedUsers returns the distinct usernames currently logged in.
func (h *Hub) ConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	users := make([]string, 0, len(h.conns))
	for _, name := range h.conns {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		users = append(users, name)
	}
	sort.Strings(users)
	return users
}

// Broadcast sends a message to every connection; stale ones are dropped.
func (h *Hub) Broadcast(message string) {
	h.sendToAll(nil, message)
}

// BroadcastExcept sends a message to every connection but one.
func (h *Hub) BroadcastExcept(excluded *Conn, message string) {
	h.sendToAll(excluded, message)
}

// SendToUser delivers a message to every connection logged in as username.
// Returns false when no such connection exists.
func (h *Hub) SendToUser(username, message string) bool {
	h.mu.RLock()
	targets := make([]*Conn, 0, 1)
	for conn, name := range h.conns {
		if name != "" && name == username {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return false
	}
	var stale []*Conn
	for _, conn := range targets {
		if err := conn.WriteText(message); err != nil {
			stale = append(stale, conn)
		}
	}
	for _, conn := range stale {
		h.Unregister(conn)
	}
	return true
}

// SendPersonal sends a message to a single connection, unregistering it on
// write failure.
func (h *Hub) SendPersonal(conn *Conn, message string) {
	if err := conn.WriteText(message); err != nil {
		h.Unregister(conn)
	}
}

func (h *Hub) sendToAll(excluded *Conn, message string) {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for conn := range h.conns {
		if conn == excluded {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	var stale []*Conn
	for _, conn := range targets {
		if err := conn.WriteText(message); err != nil {
			stale = append(stale, conn)
		}
	}
	for _, conn := range stale {
		h.Unregister(conn)
	}
}
