// services/qrcode_service.go
package services

import (
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
)

// GenerateRoomQRCode creates a QR code PNG wrapping the join URL for a room's
// invite code, so a phone can scan its way into the room.
func GenerateRoomQRCode(roomCode string, size int) ([]byte, error) {
	applicationURL := os.Getenv("APPLICATION_URL")
	if applicationURL == "" {
		applicationURL = "http://localhost:8080" // Default for local testing
	}

	joinURL := fmt.Sprintf("%s/api/rooms/join/?room_code=%s", applicationURL, roomCode)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}
