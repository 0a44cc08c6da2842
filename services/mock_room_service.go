// Package services: services/mock_room_service.go
package services

import (
	"github.com/stretchr/testify/mock"

	"heart-sync/models"
)

// Ensure MockRoomService implements RoomServiceInterface
var _ RoomServiceInterface = (*MockRoomService)(nil)

// MockRoomService is a mock implementation for testing and extends `mock.Mock`
type MockRoomService struct {
	mock.Mock
}

// CreateRoom (Mocked)
func (m *MockRoomService) CreateRoom(hostNickname string) (*models.Room, error) {
	args := m.Called(hostNickname)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

// GetRoom (Mocked)
func (m *MockRoomService) GetRoom(roomID string) (*models.Room, error) {
	args := m.Called(roomID)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

// JoinRoom (Mocked)
func (m *MockRoomService) JoinRoom(roomCode, nickname string) (*models.Room, *models.Player, error) {
	args := m.Called(roomCode, nickname)
	room, _ := args.Get(0).(*models.Room)
	player, _ := args.Get(1).(*models.Player)
	return room, player, args.Error(2)
}

// LeaveRoom (Mocked)
func (m *MockRoomService) LeaveRoom(roomID, playerID string) (bool, error) {
	args := m.Called(roomID, playerID)
	return args.Bool(0), args.Error(1)
}

// DeleteRoom (Mocked)
func (m *MockRoomService) DeleteRoom(roomID, playerID string) (*models.Room, error) {
	args := m.Called(roomID, playerID)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

// MarkPlayerReady (Mocked)
func (m *MockRoomService) MarkPlayerReady(roomID, playerID string) (*models.Player, error) {
	args := m.Called(roomID, playerID)
	player, _ := args.Get(0).(*models.Player)
	return player, args.Error(1)
}

// StartGame (Mocked)
func (m *MockRoomService) StartGame(roomID, playerID string, settings models.GameSettings) (*models.Room, error) {
	args := m.Called(roomID, playerID, settings)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

// IsPlayerPlaying (Mocked)
func (m *MockRoomService) IsPlayerPlaying(playerID string) bool {
	args := m.Called(playerID)
	return args.Bool(0)
}

// GetPlayerInfo (Mocked)
func (m *MockRoomService) GetPlayerInfo(playerID string) (*models.Player, error) {
	args := m.Called(playerID)
	player, _ := args.Get(0).(*models.Player)
	return player, args.Error(1)
}

// MarkPlayerFinished (Mocked)
func (m *MockRoomService) MarkPlayerFinished(playerID string) bool {
	args := m.Called(playerID)
	return args.Bool(0)
}
