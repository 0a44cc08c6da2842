// Package websocket - websocket/registry.go
// The room group registry maps a room ID to the set of connections attached to
// it. It carries no game logic; it only answers "who is in this room right
// now" and delivers broadcasts.
package websocket

import (
	"sync"

	"heart-sync/logger"
)

// RoomRegistry tracks which connections belong to which room.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[*Connection]bool
}

// defaultRegistry is the process-wide registry used by ServeWs and the
// messenger. Tests swap it out via InitTest.
var defaultRegistry = NewRoomRegistry()

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[*Connection]bool)}
}

// Join adds a connection to a room group, creating the group on first join.
func (r *RoomRegistry) Join(roomID string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.rooms[roomID]
	if !ok {
		group = make(map[*Connection]bool)
		r.rooms[roomID] = group
	}
	group[c] = true
	logger.Debug.Printf("[registry] connection joined room %s (%d attached)", roomID, len(group))
}

// Leave removes a connection from a room group, deleting the group once empty.
// Leaving twice, or leaving a room never joined, is a no-op.
func (r *RoomRegistry) Leave(roomID string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(r.rooms, roomID)
	}
	logger.Debug.Printf("[registry] connection left room %s (%d attached)", roomID, len(group))
}

// Broadcast delivers message to every connection currently in the room,
// skipping exclude when non-nil. Membership is snapshotted under the lock and
// the sends happen outside it, so a slow peer never stalls the registry.
// A peer whose send buffer is full simply misses the message.
func (r *RoomRegistry) Broadcast(roomID string, message []byte, exclude *Connection) {
	for _, c := range r.members(roomID) {
		if c == exclude {
			continue
		}
		c.enqueue(message)
	}
}

// RoomSize reports how many connections are attached to a room.
func (r *RoomRegistry) RoomSize(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// members returns a snapshot of the room's current connections.
func (r *RoomRegistry) members(roomID string) []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	group := r.rooms[roomID]
	snapshot := make([]*Connection, 0, len(group))
	for c := range group {
		snapshot = append(snapshot, c)
	}
	return snapshot
}
