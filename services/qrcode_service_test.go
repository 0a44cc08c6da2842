// file: services/qrcode_service_test.go
package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heart-sync/services"
)

// pngSignature is the fixed 8-byte header every PNG starts with.
var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestGenerateRoomQRCode(t *testing.T) {
	png, err := services.GenerateRoomQRCode("123456", 256)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, pngSignature, png[:8], "output should be a PNG image")
}

func TestGenerateRoomQRCode_CustomURL(t *testing.T) {
	t.Setenv("APPLICATION_URL", "https://heart-sync.example.com")

	png, err := services.GenerateRoomQRCode("654321", 128)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
