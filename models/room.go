// Package models defines data structures used across the application.
// File: models/room.go
package models

import "time"

// ----------------------- room lifecycle -----------------------

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

// Room lifecycle states.
const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// GameMode selects the scoring rules for a game.
type GameMode string

// Supported game modes.
const (
	ModeSteadyBeat GameMode = "steady_beat"
	ModePulseRush  GameMode = "pulse_rush"
)

// ----------------------- player lifecycle -----------------------

// PlayerStatus is the lifecycle state of a player within a room.
type PlayerStatus string

// Player lifecycle states.
const (
	PlayerWaiting  PlayerStatus = "waiting"
	PlayerReady    PlayerStatus = "ready"
	PlayerPlaying  PlayerStatus = "playing"
	PlayerFinished PlayerStatus = "finished"
)

// ------------------------ room model -----------------------

// Room represents a game room and the players inside it.
type Room struct {
	RoomID           string     `json:"room_id"`            // stable internal identifier
	RoomCode         string     `json:"room_code"`          // 6-digit invite code
	Status           RoomStatus `json:"status"`             // waiting | playing | finished
	MaxPlayers       int        `json:"max_players"`        // capacity, default 4
	Mode             GameMode   `json:"mode"`               // steady_beat | pulse_rush
	TimeLimitSeconds int        `json:"time_limit_seconds"` // game duration, default 120
	BPMMin           *int       `json:"bpm_min"`            // optional target range
	BPMMax           *int       `json:"bpm_max"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at"` // nil until the game starts
	Players          []*Player  `json:"players"`
}

// ------------------------ player model -----------------------

// Player represents one participant in a room.
type Player struct {
	PlayerID string       `json:"player_id"`
	Nickname string       `json:"nickname"`
	Status   PlayerStatus `json:"status"`
	IsHost   bool         `json:"is_host"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ------------------------ game settings -----------------------

// GameSettings carries the host's configuration when starting a game.
type GameSettings struct {
	Mode             GameMode `json:"mode"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	BPMMin           *int     `json:"bpm_min"`
	BPMMax           *int     `json:"bpm_max"`
}
