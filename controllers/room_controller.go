// Package controllers controllers/room_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"heart-sync/logger"
	"heart-sync/models"
	"heart-sync/services"
	"heart-sync/websocket"
)

// RoomController struct with service dependency injection
type RoomController struct {
	RoomService services.RoomServiceInterface
	Messenger   websocket.Messenger
}

// NewRoomController creates an instance of RoomController
func NewRoomController(service services.RoomServiceInterface, messenger websocket.Messenger) *RoomController {
	logger.Debug.Println("NewRoomController: Initializing RoomController")
	return &RoomController{RoomService: service, Messenger: messenger}
}

// ---------------------- request bodies ----------------------

type createRoomRequest struct {
	HostNickname string `json:"host_nickname"`
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Nickname string `json:"nickname"`
}

type playerActionRequest struct {
	PlayerID string `json:"player_id"`
}

type startGameRequest struct {
	PlayerID         string          `json:"player_id"`
	Mode             models.GameMode `json:"mode"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	BPMMin           *int            `json:"bpm_min"`
	BPMMax           *int            `json:"bpm_max"`
}

// ---------------------- handlers ----------------------

// CreateRoom creates a new waiting room with the caller as host.
// POST /api/rooms/
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HostNickname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host_nickname is required"})
		return
	}

	room, err := rc.RoomService.CreateRoom(req.HostNickname)
	if err != nil {
		rc.writeServiceError(c, "CreateRoom", err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom returns room details including the player list.
// GET /api/rooms/:room_id/
func (rc *RoomController) GetRoom(c *gin.Context) {
	room, err := rc.RoomService.GetRoom(c.Param("room_id"))
	if err != nil {
		rc.writeServiceError(c, "GetRoom", err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// JoinRoom adds a player to the room matching the invite code.
// POST /api/rooms/join/
func (rc *RoomController) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomCode == "" || req.Nickname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_code and nickname are required"})
		return
	}

	room, player, err := rc.RoomService.JoinRoom(req.RoomCode, req.Nickname)
	if err != nil {
		rc.writeServiceError(c, "JoinRoom", err)
		return
	}

	go rc.Messenger.BroadcastRoomMessage(room.RoomID, map[string]interface{}{
		"type":      "player_joined",
		"player_id": player.PlayerID,
		"nickname":  player.Nickname,
	})
	c.JSON(http.StatusOK, room)
}

// LeaveRoom removes a player; a departing host takes the room with them.
// POST /api/rooms/:room_id/leave/
func (rc *RoomController) LeaveRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	var req playerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	// Grab the room code before the leave, in case the host deletes the room.
	room, err := rc.RoomService.GetRoom(roomID)
	if err != nil {
		rc.writeServiceError(c, "LeaveRoom", err)
		return
	}

	roomDeleted, err := rc.RoomService.LeaveRoom(roomID, req.PlayerID)
	if err != nil {
		rc.writeServiceError(c, "LeaveRoom", err)
		return
	}

	if roomDeleted {
		go rc.Messenger.BroadcastRoomMessage(roomID, map[string]interface{}{
			"type": "room_deleted",
		})
		c.JSON(http.StatusOK, gin.H{
			"message":   "Room deleted (host left)",
			"room_code": room.RoomCode,
		})
		return
	}

	go rc.Messenger.BroadcastRoomMessage(roomID, map[string]interface{}{
		"type":      "player_left",
		"player_id": req.PlayerID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the room"})
}

// ReadyPlayer marks a player as ready for the game to start.
// POST /api/rooms/:room_id/ready/
func (rc *RoomController) ReadyPlayer(c *gin.Context) {
	roomID := c.Param("room_id")
	var req playerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	player, err := rc.RoomService.MarkPlayerReady(roomID, req.PlayerID)
	if err != nil {
		rc.writeServiceError(c, "ReadyPlayer", err)
		return
	}

	go rc.Messenger.BroadcastRoomMessage(roomID, map[string]interface{}{
		"type":      "player_ready",
		"player_id": player.PlayerID,
		"nickname":  player.Nickname,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Player ready", "player": player})
}

// StartGame applies the host's settings and moves everyone to playing.
// POST /api/rooms/:room_id/start/
func (rc *RoomController) StartGame(c *gin.Context) {
	roomID := c.Param("room_id")
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID == "" || req.Mode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and mode are required"})
		return
	}

	room, err := rc.RoomService.StartGame(roomID, req.PlayerID, models.GameSettings{
		Mode:             req.Mode,
		TimeLimitSeconds: req.TimeLimitSeconds,
		BPMMin:           req.BPMMin,
		BPMMax:           req.BPMMax,
	})
	if err != nil {
		rc.writeServiceError(c, "StartGame", err)
		return
	}

	go rc.Messenger.BroadcastRoomMessage(roomID, map[string]interface{}{
		"type":       "game_started",
		"mode":       room.Mode,
		"time_limit": room.TimeLimitSeconds,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Game started",
		"room_id": room.RoomID,
		"status":  room.Status,
		"game_settings": gin.H{
			"mode":       room.Mode,
			"time_limit": room.TimeLimitSeconds,
			"bpm_min":    room.BPMMin,
			"bpm_max":    room.BPMMax,
		},
		"started_at": room.StartedAt,
	})
}

// DeleteRoom removes a room on the host's request.
// DELETE /api/rooms/:room_id/delete/?player_id={player_id}
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	playerID := c.Query("player_id")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "player_id is required",
			"detail": "Add ?player_id=YOUR_ID to the request URL",
		})
		return
	}

	room, err := rc.RoomService.DeleteRoom(roomID, playerID)
	if err != nil {
		rc.writeServiceError(c, "DeleteRoom", err)
		return
	}

	go rc.Messenger.BroadcastRoomMessage(roomID, map[string]interface{}{
		"type": "room_deleted",
	})
	c.JSON(http.StatusOK, gin.H{
		"message":         "Room deleted successfully",
		"room_code":       room.RoomCode,
		"deleted_players": len(room.Players),
	})
}

// GetRoomQRCode renders the room's invite link as a PNG QR code.
// GET /api/rooms/:room_id/qrcode
func (rc *RoomController) GetRoomQRCode(c *gin.Context) {
	room, err := rc.RoomService.GetRoom(c.Param("room_id"))
	if err != nil {
		rc.writeServiceError(c, "GetRoomQRCode", err)
		return
	}

	png, err := services.GenerateRoomQRCode(room.RoomCode, 256)
	if err != nil {
		logger.Error.Printf("GetRoomQRCode: failed to generate QR code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ---------------------- error mapping ----------------------

// writeServiceError maps room service errors onto HTTP statuses.
func (rc *RoomController) writeServiceError(c *gin.Context, op string, err error) {
	logger.Warn.Printf("%s: %v", op, err)
	switch {
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, services.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrGameAlreadyStarted),
		errors.Is(err, services.ErrPlayersNotReady),
		errors.Is(err, services.ErrInvalidNickname),
		errors.Is(err, services.ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error.Printf("%s: unexpected error: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
