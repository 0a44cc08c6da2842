//go:build unit
// +build unit

// liveness_test.go
//
// These tests shrink the poll/timeout windows so real timers can run inside
// the test without multi-second sleeps.

package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heart-sync/models"
	"heart-sync/services"
)

// armedSession builds a session bound to playerID whose liveness monitor is
// running, plus a peer in the same room to observe broadcasts.
func armedSession(t *testing.T, store *services.MockRoomService) (*Connection, *fakeConn, *Connection) {
	t.Helper()

	sender, fc := newTestConnection("r1", store)
	peer, _ := newTestConnection("r1", store)

	sender.handleIncoming(GameMessage{Type: MessageHeartRate, PlayerID: "p1", BPM: json.Number("70")})
	sender.mu.Lock()
	armed := sender.cancelLiveness != nil
	sender.mu.Unlock()
	require.True(t, armed, "monitor should be armed for a playing player")

	// Flush the heart_rate fan-out so later assertions only see what the
	// monitor produces.
	drainSend(sender)
	drainSend(peer)
	return sender, fc, peer
}

func collectTypes(msgs [][]byte) []string {
	var types []string
	for _, m := range msgs {
		var body map[string]interface{}
		_ = json.Unmarshal(m, &body)
		if s, ok := body["type"].(string); ok {
			types = append(types, s)
		}
	}
	return types
}

func TestLivenessMonitor_FiresOnceOnSilence(t *testing.T) {
	InitTest()
	SetLivenessWindow(10*time.Millisecond, 30*time.Millisecond)

	store := &services.MockRoomService{}
	store.On("IsPlayerPlaying", "p1").Return(true)
	store.On("GetPlayerInfo", "p1").Return(&models.Player{PlayerID: "p1", Nickname: "kim"}, nil)
	store.On("MarkPlayerFinished", "p1").Return(true)

	_, fc, peer := armedSession(t, store)

	assert.Eventually(t, fc.isClosed, 2*time.Second, 5*time.Millisecond,
		"silent session should be closed by the monitor")

	// Give a few extra poll cycles a chance to misfire, then count.
	time.Sleep(100 * time.Millisecond)
	msgs := drainSend(peer)
	require.Len(t, msgs, 1, "exactly one disconnect announcement")
	assert.JSONEq(t, `{"type":"player_disconnected","player_id":"p1","nickname":"kim"}`, string(msgs[0]))

	store.AssertNumberOfCalls(t, "MarkPlayerFinished", 1)
	assert.Equal(t, 1, defaultRegistry.RoomSize("r1"), "only the peer remains in the room group")
}

func TestLivenessMonitor_CleanDisconnectIsSilent(t *testing.T) {
	InitTest()
	SetLivenessWindow(10*time.Millisecond, 30*time.Millisecond)

	store := &services.MockRoomService{}
	store.On("IsPlayerPlaying", "p1").Return(true)

	sender, fc, peer := armedSession(t, store)

	// Player closes the tab before going silent long enough.
	sender.teardown()
	assert.True(t, fc.isClosed())

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, drainSend(peer), "cancellation produces no broadcast")
	store.AssertNotCalled(t, "MarkPlayerFinished", "p1")
	store.AssertNotCalled(t, "GetPlayerInfo", "p1")
}

func TestLivenessMonitor_PingsKeepSessionAlive(t *testing.T) {
	InitTest()
	SetLivenessWindow(10*time.Millisecond, 30*time.Millisecond)

	store := &services.MockRoomService{}
	store.On("IsPlayerPlaying", "p1").Return(true)
	store.On("GetPlayerInfo", "p1").Return(&models.Player{PlayerID: "p1", Nickname: "kim"}, nil)
	store.On("MarkPlayerFinished", "p1").Return(true)

	sender, fc, peer := armedSession(t, store)

	// Ping well inside the threshold across many poll cycles.
	for i := 0; i < 15; i++ {
		sender.handleIncoming(GameMessage{Type: MessagePing})
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, fc.isClosed(), "monitor must not fire while pings arrive")

	types := collectTypes(drainSend(peer))
	assert.NotContains(t, types, MessagePlayerDisconnected)

	// Stop pinging and the timeout takes over.
	assert.Eventually(t, fc.isClosed, 2*time.Second, 5*time.Millisecond)
	types = collectTypes(drainSend(peer))
	assert.Contains(t, types, MessagePlayerDisconnected)
}

func TestLivenessMonitor_VanishedPlayerSkipsBroadcast(t *testing.T) {
	InitTest()
	SetLivenessWindow(10*time.Millisecond, 30*time.Millisecond)

	store := &services.MockRoomService{}
	store.On("IsPlayerPlaying", "p1").Return(true)
	store.On("GetPlayerInfo", "p1").Return(nil, services.ErrPlayerNotFound)

	_, fc, peer := armedSession(t, store)

	assert.Eventually(t, fc.isClosed, 2*time.Second, 5*time.Millisecond,
		"connection still closes when the record is gone")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, drainSend(peer), "no announcement for an unknown player")
	store.AssertNotCalled(t, "MarkPlayerFinished", "p1")
}

// Cancellation observed before the effects sequence starts must win, even
// when the keepalive is already past the threshold.
func TestLivenessMonitor_CancellationBeatsTimeout(t *testing.T) {
	InitTest()
	SetLivenessWindow(5*time.Millisecond, 10*time.Millisecond)

	store := &services.MockRoomService{}
	c, _ := newTestConnection("r1", store)
	peer, _ := newTestConnection("r1", store)
	c.lastKeepalive.Store(time.Now().Add(-time.Minute).UnixNano())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.runLivenessMonitor(ctx, "p1")

	assert.Empty(t, drainSend(peer))
	store.AssertNotCalled(t, "GetPlayerInfo", "p1")
}
