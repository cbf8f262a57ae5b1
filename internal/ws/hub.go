package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket session with user context. One user
// may have several clients at once (multi-device).
type Client struct {
	UserID   uint
	SocketID string
	Send     chan []byte
	hub      *Hub
	mu       sync.Mutex
	closed   bool
}

// Enqueue queues a frame for the session without blocking. Frames are dropped
// when the session is closed or saturated. All writes to Send must go through
// here; a bare channel send can race Close and panic.
func (c *Client) Enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		// slow consumer: drop the frame rather than block the hub
	}
}

// Close marks the client closed, closes its send channel and removes it from
// the hub. Safe to call more than once and concurrently with broadcasts.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub is the connection registry: it tracks live sessions per user and the
// conversation rooms each session has joined. It is constructed once at
// startup and injected into the handlers that need it.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// userID -> sessions (one user can have multiple connections)
	byUser map[uint]map[*Client]struct{}
	// room name -> sessions, plus a reverse index so unregister only walks
	// the rooms the leaving session is actually in
	rooms   map[string]map[*Client]struct{}
	inRooms map[*Client]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		inRooms: make(map[*Client]map[string]struct{}),
	}
}

// Register attaches a session. Returns the number of live sessions the user
// has afterwards, so the caller knows whether this was the first one.
func (h *Hub) Register(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	return len(h.byUser[c.UserID])
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	for room := range h.inRooms[c] {
		if members := h.rooms[room]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.inRooms, c)
}

// JoinRoom adds the session to a conversation room.
func (h *Hub) JoinRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	if h.inRooms[c] == nil {
		h.inRooms[c] = make(map[string]struct{})
	}
	h.inRooms[c][room] = struct{}{}
}

// LeaveRoom removes the session from a room. No-op for unknown pairs.
func (h *Hub) LeaveRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms := h.inRooms[c]; rooms != nil {
		delete(rooms, room)
	}
}

// SessionCount returns how many live sessions a user has.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// IsOnline reports whether a user has at least one live session. Advisory
// only: a session can disconnect between check and use.
func (h *Hub) IsOnline(userID uint) bool {
	return h.SessionCount(userID) > 0
}

func (h *Hub) snapshotUser(userID uint) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) snapshotRoom(room string, exceptUser uint, hasExcept bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.rooms[room]
	if len(m) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		if hasExcept && c.UserID == exceptUser {
			continue
		}
		clients = append(clients, c)
	}
	return clients
}

func deliver(clients []*Client, payload interface{}) {
	if len(clients) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, c := range clients {
		c.Enqueue(data)
	}
}

// BroadcastToUser sends to every session of one user (the personal channel).
func (h *Hub) BroadcastToUser(userID uint, payload interface{}) {
	deliver(h.snapshotUser(userID), payload)
}

// BroadcastToRoom sends to every session currently joined to the room.
func (h *Hub) BroadcastToRoom(room string, payload interface{}) {
	deliver(h.snapshotRoom(room, 0, false), payload)
}

// BroadcastToRoomExcept sends to the room, skipping all of one user's
// sessions. Used for typing indicators, which the typist never needs back.
func (h *Hub) BroadcastToRoomExcept(room string, exceptUserID uint, payload interface{}) {
	deliver(h.snapshotRoom(room, exceptUserID, true), payload)
}

// BroadcastAll sends to every live session.
func (h *Hub) BroadcastAll(payload interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	deliver(clients, payload)
}

// BroadcastAllExcept sends to every live session except one user's. Used for
// the ambient user_online / user_offline announcements.
func (h *Hub) BroadcastAllExcept(exceptUserID uint, payload interface{}) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.UserID == exceptUserID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	deliver(clients, payload)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
