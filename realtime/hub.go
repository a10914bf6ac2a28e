// Package realtime pushes dashboard events to connected group members over
// websockets, so a completed habit shows up on everyone's screen without a
// refresh.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

const (
	EventMemberJoined   = "member_joined"
	EventHabitAdded     = "habit_added"
	EventHabitCompleted = "habit_completed"
	EventHabitDeleted   = "habit_deleted"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks which connections belong to which group. A nil *Hub is valid
// and drops all broadcasts, which keeps the services testable without
// websocket plumbing.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[*websocket.Conn]struct{}),
	}
}

// Join registers a connection with its group's room.
func (h *Hub) Join(groupID uint, conn *websocket.Conn) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*websocket.Conn]struct{})
		h.rooms[groupID] = room
	}
	room[conn] = struct{}{}
}

// Leave removes a connection from its group's room.
func (h *Hub) Leave(groupID uint, conn *websocket.Conn) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[groupID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Broadcast sends an event to every connection in the group's room.
// Connections that fail to write are dropped.
func (h *Hub) Broadcast(groupID uint, eventType string, data interface{}) {
	if h == nil {
		return
	}
	event := Event{Type: eventType, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[groupID]
	for conn := range room {
		if err := conn.WriteJSON(event); err != nil {
			slog.Debug("dropping websocket connection", "group_id", groupID, "error", err)
			conn.Close()
			delete(room, conn)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, groupID)
	}
}
