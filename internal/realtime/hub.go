package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// WriteWait is the per-message write deadline.
	WriteWait = 10 * time.Second
	// PongWait is how long a connection may stay silent.
	PongWait = 60 * time.Second
	// PingPeriod is the server ping interval; must be under PongWait.
	PingPeriod = (PongWait * 9) / 10
	// MaxMessageSize caps inbound client frames.
	MaxMessageSize = 4096
)

// Event is the wire frame exchanged with realtime clients. Delivered
// payloads are stamped with a server-side timestamp at broadcast time.
type Event struct {
	Event     string    `json:"event"`
	Room      string    `json:"room,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Group     string    `json:"group,omitempty"`
	Content   string    `json:"content,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Session is one client connection and the set of rooms it joined.
// Rooms are mutated only by the owning connection's read loop.
type Session struct {
	hub   *Hub
	conn  *websocket.Conn
	rooms map[string]bool

	writeMu sync.Mutex
}

// WriteJSON sends one frame with a write deadline. Serialized because
// broadcasts and the ping loop share the connection.
func (s *Session) WriteJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// Ping sends a ping control frame.
func (s *Session) Ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// Conn exposes the underlying connection for read-side configuration.
func (s *Session) Conn() *websocket.Conn {
	return s.conn
}

// Joined reports whether the session is in room.
func (s *Session) Joined(room string) bool {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.rooms[room]
}

// Hub fans events out to the sessions currently joined to a room.
// Delivery is fire-and-forget: no persistence, no acknowledgement, no
// retry. A session that is not connected simply misses the event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]bool
	log   *logrus.Logger
}

// NewHub creates an empty hub
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Session]bool),
		log:   log,
	}
}

// Register wraps an upgraded connection into a session.
func (h *Hub) Register(conn *websocket.Conn) *Session {
	return &Session{hub: h, conn: conn, rooms: make(map[string]bool)}
}

// Join adds the session to a room.
func (h *Hub) Join(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]bool)
	}
	h.rooms[room][s] = true
	s.rooms[room] = true
}

// Leave removes the session from a room.
func (h *Hub) Leave(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *Hub) leaveLocked(s *Session, room string) {
	if sessions, ok := h.rooms[room]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(s.rooms, room)
}

// Unregister removes the session from every room and closes it.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
	h.mu.Unlock()
	s.conn.Close()
}

// RoomSize reports how many sessions are joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast stamps the event with the current server time and fans it
// out to every session joined to the room. Failed sessions are dropped.
func (h *Hub) Broadcast(room string, event Event) {
	event.Timestamp = time.Now()

	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.WriteJSON(event); err != nil {
			if h.log != nil {
				h.log.WithFields(logrus.Fields{"room": room, "error": err.Error()}).Warn("dropping realtime session")
			}
			h.Unregister(s)
		}
	}
}
