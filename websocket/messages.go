// Package websocket - websocket/messages.go
// Wire protocol for the per-room game socket. Every frame is a small JSON
// object tagged by a "type" discriminator.
package websocket

import "encoding/json"

// Inbound and outbound message kinds.
const (
	MessagePing               = "ping"
	MessagePong               = "pong"
	MessageHeartRate          = "heart_rate"
	MessagePlayerDisconnected = "player_disconnected"
)

// GameMessage is the envelope for inbound frames and for heart_rate fan-out.
// BPM is kept as a json.Number so the value is relayed exactly as the client
// sent it.
type GameMessage struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"player_id,omitempty"`
	BPM      json.Number `json:"bpm,omitempty"`
}

// disconnectMessage announces a liveness-timeout departure to the room.
type disconnectMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
}

// Canned replies. Marshalled once; the shapes never vary.
var (
	pongPayload        = []byte(`{"type":"pong"}`)
	invalidJSONPayload = []byte(`{"error":"Invalid JSON"}`)
)
