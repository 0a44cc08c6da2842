// Package services: services/room_service.go
package services

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"heart-sync/logger"
	"heart-sync/models"
)

// ------------------- service errors -------------------

// Errors returned by the room service. Controllers map these onto HTTP statuses.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotHost            = errors.New("only the host may do this")
	ErrPlayersNotReady    = errors.New("not all players are ready")
	ErrInvalidNickname    = errors.New("nickname must be between 2-10 characters")
	ErrInvalidMode        = errors.New("invalid game mode")
)

// ------------------- interface -------------------

// RoomServiceInterface is the record store consumed by the HTTP controllers and
// the websocket gateway.
type RoomServiceInterface interface {
	CreateRoom(hostNickname string) (*models.Room, error)
	GetRoom(roomID string) (*models.Room, error)
	JoinRoom(roomCode, nickname string) (*models.Room, *models.Player, error)
	LeaveRoom(roomID, playerID string) (bool, error)
	DeleteRoom(roomID, playerID string) (*models.Room, error)
	MarkPlayerReady(roomID, playerID string) (*models.Player, error)
	StartGame(roomID, playerID string, settings models.GameSettings) (*models.Room, error)
	IsPlayerPlaying(playerID string) bool
	GetPlayerInfo(playerID string) (*models.Player, error)
	MarkPlayerFinished(playerID string) bool
}

// RoomService keeps all room and player records in process memory.
type RoomService struct {
	mu          sync.Mutex
	rooms       map[string]*models.Room // keyed by RoomID
	codeIndex   map[string]string       // RoomCode -> RoomID
	playerIndex map[string]string       // PlayerID -> RoomID
}

// Ensure RoomService implements RoomServiceInterface.
var _ RoomServiceInterface = (*RoomService)(nil)

// NewRoomService creates an empty in-memory room store.
func NewRoomService() *RoomService {
	return &RoomService{
		rooms:       make(map[string]*models.Room),
		codeIndex:   make(map[string]string),
		playerIndex: make(map[string]string),
	}
}

// ------------------- room lifecycle -------------------

// CreateRoom creates a waiting room and its host player.
func (s *RoomService) CreateRoom(hostNickname string) (*models.Room, error) {
	if !validNickname(hostNickname) {
		return nil, ErrInvalidNickname
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := &models.Room{
		RoomID:           newRoomID(),
		RoomCode:         s.newRoomCodeLocked(),
		Status:           models.RoomWaiting,
		MaxPlayers:       4,
		Mode:             models.ModeSteadyBeat,
		TimeLimitSeconds: 120,
		CreatedAt:        time.Now(),
	}
	host := &models.Player{
		PlayerID: uuid.NewString(),
		Nickname: hostNickname,
		Status:   models.PlayerWaiting,
		IsHost:   true,
		JoinedAt: time.Now(),
	}
	room.Players = append(room.Players, host)

	s.rooms[room.RoomID] = room
	s.codeIndex[room.RoomCode] = room.RoomID
	s.playerIndex[host.PlayerID] = room.RoomID

	logger.Info.Printf("CreateRoom: room %s (code %s) created by host %q", room.RoomID, room.RoomCode, hostNickname)
	return snapshotRoom(room), nil
}

// GetRoom returns the room with the given ID, including its player list.
func (s *RoomService) GetRoom(roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return snapshotRoom(room), nil
}

// JoinRoom adds a new waiting player to the room with the given invite code.
// Only rooms that have not started and are not full accept new players.
func (s *RoomService) JoinRoom(roomCode, nickname string) (*models.Room, *models.Player, error) {
	if !validNickname(nickname) {
		return nil, nil, ErrInvalidNickname
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.codeIndex[roomCode]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	room := s.rooms[roomID]

	if room.Status != models.RoomWaiting {
		return nil, nil, ErrGameAlreadyStarted
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, nil, ErrRoomFull
	}

	player := &models.Player{
		PlayerID: uuid.NewString(),
		Nickname: nickname,
		Status:   models.PlayerWaiting,
		IsHost:   false,
		JoinedAt: time.Now(),
	}
	room.Players = append(room.Players, player)
	s.playerIndex[player.PlayerID] = room.RoomID

	logger.Info.Printf("JoinRoom: %q joined room %s (%d/%d players)", nickname, room.RoomID, len(room.Players), room.MaxPlayers)
	return snapshotRoom(room), snapshotPlayer(player), nil
}

// LeaveRoom removes a player from a room. When the host leaves, the whole room
// is deleted along with every remaining player; the returned bool reports that.
func (s *RoomService) LeaveRoom(roomID, playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	player := findPlayer(room, playerID)
	if player == nil {
		return false, ErrPlayerNotFound
	}

	if player.IsHost {
		s.deleteRoomLocked(room)
		logger.Info.Printf("LeaveRoom: host left, room %s deleted", room.RoomID)
		return true, nil
	}

	s.removePlayerLocked(room, playerID)
	logger.Info.Printf("LeaveRoom: player %s left room %s", playerID, room.RoomID)
	return false, nil
}

// DeleteRoom removes a room and all of its players. Host only.
func (s *RoomService) DeleteRoom(roomID, playerID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	player := findPlayer(room, playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if !player.IsHost {
		return nil, ErrNotHost
	}

	snap := snapshotRoom(room)
	s.deleteRoomLocked(room)
	logger.Info.Printf("DeleteRoom: room %s (code %s) deleted by host", snap.RoomID, snap.RoomCode)
	return snap, nil
}

// ------------------- player state -------------------

// MarkPlayerReady transitions a waiting player to ready.
func (s *RoomService) MarkPlayerReady(roomID, playerID string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	player := findPlayer(room, playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if room.Status != models.RoomWaiting {
		return nil, ErrGameAlreadyStarted
	}

	player.Status = models.PlayerReady
	logger.Info.Printf("MarkPlayerReady: player %s ready in room %s", playerID, roomID)
	return snapshotPlayer(player), nil
}

// StartGame applies the host's settings and moves the room and every player to
// playing. All players, host included, must be ready.
func (s *RoomService) StartGame(roomID, playerID string, settings models.GameSettings) (*models.Room, error) {
	if settings.Mode != models.ModeSteadyBeat && settings.Mode != models.ModePulseRush {
		return nil, ErrInvalidMode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	player := findPlayer(room, playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	if !player.IsHost {
		return nil, ErrNotHost
	}
	if room.Status != models.RoomWaiting {
		return nil, ErrGameAlreadyStarted
	}

	ready := 0
	for _, p := range room.Players {
		if p.Status == models.PlayerReady {
			ready++
		}
	}
	if ready != len(room.Players) {
		logger.Warn.Printf("StartGame: room %s has %d/%d players ready", roomID, ready, len(room.Players))
		return nil, ErrPlayersNotReady
	}

	room.Mode = settings.Mode
	if settings.TimeLimitSeconds > 0 {
		room.TimeLimitSeconds = settings.TimeLimitSeconds
	}
	room.BPMMin = settings.BPMMin
	room.BPMMax = settings.BPMMax
	room.Status = models.RoomPlaying
	now := time.Now()
	room.StartedAt = &now
	for _, p := range room.Players {
		p.Status = models.PlayerPlaying
	}

	logger.Info.Printf("StartGame: room %s started (mode=%s, limit=%ds)", roomID, room.Mode, room.TimeLimitSeconds)
	return snapshotRoom(room), nil
}

// ------------------- gateway queries -------------------

// IsPlayerPlaying reports whether the player exists and is currently playing.
// Unknown players fail closed.
func (s *RoomService) IsPlayerPlaying(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.lookupPlayerLocked(playerID)
	return player != nil && player.Status == models.PlayerPlaying
}

// GetPlayerInfo returns the player record for the given ID.
func (s *RoomService) GetPlayerInfo(playerID string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.lookupPlayerLocked(playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	return snapshotPlayer(player), nil
}

// MarkPlayerFinished transitions a player to finished, returning false when the
// player no longer exists. Once the last playing player finishes, the room
// itself moves to finished.
func (s *RoomService) MarkPlayerFinished(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.playerIndex[playerID]
	if !ok {
		return false
	}
	room := s.rooms[roomID]
	player := findPlayer(room, playerID)
	if player == nil {
		return false
	}

	player.Status = models.PlayerFinished
	logger.Info.Printf("MarkPlayerFinished: player %s finished in room %s", playerID, roomID)

	if room.Status == models.RoomPlaying {
		stillPlaying := 0
		for _, p := range room.Players {
			if p.Status == models.PlayerPlaying {
				stillPlaying++
			}
		}
		if stillPlaying == 0 {
			room.Status = models.RoomFinished
			logger.Info.Printf("MarkPlayerFinished: room %s finished", roomID)
		}
	}
	return true
}

// ------------------- internal helpers -------------------

// deleteRoomLocked removes the room and all index entries. Caller holds s.mu.
func (s *RoomService) deleteRoomLocked(room *models.Room) {
	for _, p := range room.Players {
		delete(s.playerIndex, p.PlayerID)
	}
	delete(s.codeIndex, room.RoomCode)
	delete(s.rooms, room.RoomID)
}

// removePlayerLocked drops a single player from a room. Caller holds s.mu.
func (s *RoomService) removePlayerLocked(room *models.Room, playerID string) {
	for i, p := range room.Players {
		if p.PlayerID == playerID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			break
		}
	}
	delete(s.playerIndex, playerID)
}

// lookupPlayerLocked resolves a player by ID through the player index.
// Caller holds s.mu.
func (s *RoomService) lookupPlayerLocked(playerID string) *models.Player {
	roomID, ok := s.playerIndex[playerID]
	if !ok {
		return nil
	}
	return findPlayer(s.rooms[roomID], playerID)
}

// newRoomCodeLocked generates a 6-digit invite code unique across live rooms.
// Caller holds s.mu.
func (s *RoomService) newRoomCodeLocked() string {
	for {
		u := uuid.New()
		code := make([]byte, 6)
		n := binary.BigEndian.Uint32(u[0:4]) % 1000000
		for i := 5; i >= 0; i-- {
			code[i] = byte('0' + n%10)
			n /= 10
		}
		if _, taken := s.codeIndex[string(code)]; !taken {
			return string(code)
		}
	}
}

// newRoomID returns a short stable room identifier.
func newRoomID() string {
	return uuid.NewString()[:8]
}

func findPlayer(room *models.Room, playerID string) *models.Player {
	for _, p := range room.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func validNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= 2 && n <= 10
}

// snapshotRoom copies a room so callers never share memory with the store.
func snapshotRoom(room *models.Room) *models.Room {
	snap := *room
	snap.Players = make([]*models.Player, len(room.Players))
	for i, p := range room.Players {
		snap.Players[i] = snapshotPlayer(p)
	}
	return &snap
}

func snapshotPlayer(player *models.Player) *models.Player {
	snap := *player
	return &snap
}
