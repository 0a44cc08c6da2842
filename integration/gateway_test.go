//go:build integration
// +build integration

// integration/gateway_test.go
//
// End-to-end tests over real WebSocket connections: a gin router, an
// in-memory room store and gorilla clients dialing the test server.
package integration

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heart-sync/models"
	"heart-sync/services"
	websocket2 "heart-sync/websocket"
)

// startGateway boots a test server exposing only the game socket.
func startGateway(t *testing.T, svc services.RoomServiceInterface) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/game/:room_id", func(c *gin.Context) {
		websocket2.ServeWs(c.Writer, c.Request, c.Param("room_id"), svc)
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + server.URL[4:] + "/ws/game/" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "WebSocket connection should succeed")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

// awaitMessage reads frames until one with the wanted "type" (or "error" key
// for wantType "error") arrives, skipping unrelated traffic such as pongs.
func awaitMessage(t *testing.T, conn *websocket.Conn, wantType string, timeout time.Duration) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "expected a %q frame before the deadline", wantType)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		if wantType == "error" {
			if _, ok := body["error"]; ok {
				return body
			}
			continue
		}
		if body["type"] == wantType {
			return body
		}
	}
}

// newPlayingRoom drives the store through create/join/ready/start and returns
// the playing room.
func newPlayingRoom(t *testing.T, svc *services.RoomService) *models.Room {
	t.Helper()
	room, err := svc.CreateRoom("hosty")
	require.NoError(t, err)
	_, _, err = svc.JoinRoom(room.RoomCode, "guest")
	require.NoError(t, err)

	room, err = svc.GetRoom(room.RoomID)
	require.NoError(t, err)
	for _, p := range room.Players {
		_, err = svc.MarkPlayerReady(room.RoomID, p.PlayerID)
		require.NoError(t, err)
	}
	room, err = svc.StartGame(room.RoomID, room.Players[0].PlayerID, models.GameSettings{
		Mode: models.ModeSteadyBeat,
	})
	require.NoError(t, err)
	return room
}

func TestHeartRateFanOut(t *testing.T) {
	websocket2.InitTest()
	svc := services.NewRoomService()
	room := newPlayingRoom(t, svc)
	otherRoom := newPlayingRoom(t, svc)
	server := startGateway(t, svc)

	a := dial(t, server, room.RoomID)
	b := dial(t, server, room.RoomID)
	c := dial(t, server, otherRoom.RoomID)

	hostID := room.Players[0].PlayerID
	send(t, a, `{"type":"heart_rate","player_id":"`+hostID+`","bpm":72}`)

	for _, conn := range []*websocket.Conn{a, b} {
		got := awaitMessage(t, conn, "heart_rate", 2*time.Second)
		assert.Equal(t, hostID, got["player_id"])
		assert.Equal(t, float64(72), got["bpm"])
	}

	// The other room must stay silent.
	require.NoError(t, c.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := c.ReadMessage()
	assert.Error(t, err, "no cross-room leakage")
}

func TestInvalidJSONIsRecoverable(t *testing.T) {
	websocket2.InitTest()
	svc := services.NewRoomService()
	room, err := svc.CreateRoom("hosty")
	require.NoError(t, err)
	server := startGateway(t, svc)

	conn := dial(t, server, room.RoomID)

	send(t, conn, `{definitely not json`)
	got := awaitMessage(t, conn, "error", 2*time.Second)
	assert.Equal(t, "Invalid JSON", got["error"])

	// The connection survives and keeps serving valid frames.
	send(t, conn, `{"type":"ping"}`)
	awaitMessage(t, conn, "pong", 2*time.Second)
}

func TestLivenessTimeoutAnnouncesDisconnect(t *testing.T) {
	websocket2.InitTest()
	websocket2.SetLivenessWindow(50*time.Millisecond, 150*time.Millisecond)
	defer websocket2.SetLivenessWindow(5*time.Second, 15*time.Second)

	svc := services.NewRoomService()
	room := newPlayingRoom(t, svc)
	server := startGateway(t, svc)

	a := dial(t, server, room.RoomID)
	b := dial(t, server, room.RoomID)

	hostID := room.Players[0].PlayerID
	guestID := room.Players[1].PlayerID

	// Both bind; both monitors arm because the room is playing.
	send(t, a, `{"type":"heart_rate","player_id":"`+hostID+`","bpm":72}`)
	send(t, b, `{"type":"heart_rate","player_id":"`+guestID+`","bpm":75}`)
	awaitMessage(t, b, "heart_rate", 2*time.Second)

	// B keeps pinging; A goes silent.
	stopPings := make(chan struct{})
	defer close(stopPings)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPings:
				return
			case <-ticker.C:
				_ = b.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
			}
		}
	}()

	got := awaitMessage(t, b, "player_disconnected", 5*time.Second)
	assert.Equal(t, hostID, got["player_id"])
	assert.Equal(t, "hosty", got["nickname"])

	// A's connection was closed by the monitor.
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := a.ReadMessage(); err != nil {
			break
		}
	}

	// The store recorded the departure.
	info, err := svc.GetPlayerInfo(hostID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerFinished, info.Status)
}
