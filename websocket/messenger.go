// Package websocket - websocket/messenger.go
// The Messenger lets the HTTP controllers push room events into the broadcast
// groups without reaching into connection internals.
package websocket

import (
	"encoding/json"

	"heart-sync/logger"
)

// Messenger is an interface for broadcasting messages to a room.
type Messenger interface {
	BroadcastRoomMessage(roomID string, msg map[string]interface{})
	BroadcastRaw(roomID string, msg []byte)
}

type realMessenger struct{}

// NewMessenger returns a Messenger backed by the process-wide registry.
func NewMessenger() Messenger {
	return &realMessenger{}
}

// BroadcastRoomMessage marshals the message and sends it to every connection
// in the room.
func (r *realMessenger) BroadcastRoomMessage(roomID string, msg map[string]interface{}) {
	m, err := json.Marshal(msg)
	if err != nil {
		logger.Error.Printf("realMessenger: error marshalling message for room %s: %v", roomID, err)
		return
	}
	defaultRegistry.Broadcast(roomID, m, nil)
	logger.Debug.Printf("realMessenger: broadcast sent to room %s", roomID)
}

// BroadcastRaw sends a pre-marshalled message to every connection in the room.
func (r *realMessenger) BroadcastRaw(roomID string, msg []byte) {
	defaultRegistry.Broadcast(roomID, msg, nil)
}
