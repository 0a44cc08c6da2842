// Package websocket - websocket/liveness.go
// The liveness monitor watches one session for missing keepalives. A dropped
// network connection without a close handshake is invisible to the rest of the
// room; periodic app-level pings plus a multi-cycle grace window turn that
// silence into a player_disconnected announcement with bounded latency.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"heart-sync/logger"
	"heart-sync/services"
)

// Poll and timeout windows. Package variables so tests can tighten them.
// 15s means at most three missed keepalive cycles before a player is declared
// gone; worst-case detection latency is one poll past the threshold.
var (
	livenessPollInterval = 5 * time.Second
	livenessTimeout      = 15 * time.Second
)

// runLivenessMonitor polls the session's last-keepalive stamp until the
// session is torn down (ctx canceled) or the timeout threshold is crossed.
// Cancellation is silent: no broadcast, no store mutation.
func (c *Connection) runLivenessMonitor(ctx context.Context, playerID string) {
	logger.Info.Printf("[liveness] monitor started for player %s in room %s", playerID, c.roomID)

	ticker := time.NewTicker(livenessPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug.Printf("[liveness] monitor canceled for player %s", playerID)
			return
		case <-ticker.C:
			last := time.Unix(0, c.lastKeepalive.Load())
			if time.Since(last) <= livenessTimeout {
				continue
			}
			// A clean disconnect racing the timeout must win: re-check
			// cancellation before any effect runs.
			if ctx.Err() != nil {
				logger.Debug.Printf("[liveness] cancellation beat timeout for player %s", playerID)
				return
			}
			c.fireLivenessTimeout(playerID)
			return
		}
	}
}

// fireLivenessTimeout runs the one-shot timeout effects: look the player up,
// mark them finished, tell the room, close the socket. A vanished player
// record skips the announcement but the socket still closes. Store failures
// abort the remaining effects; they never crash the session.
func (c *Connection) fireLivenessTimeout(playerID string) {
	logger.Warn.Printf("[liveness] keepalive timeout for player %s in room %s", playerID, c.roomID)

	player, err := c.store.GetPlayerInfo(playerID)
	if err != nil {
		if errors.Is(err, services.ErrPlayerNotFound) {
			logger.Info.Printf("[liveness] player %s no longer exists; closing without broadcast", playerID)
		} else {
			logger.Error.Printf("[liveness] store lookup failed for player %s: %v", playerID, err)
		}
		c.teardown()
		return
	}

	if !c.store.MarkPlayerFinished(playerID) {
		// Record vanished between the lookup and the mutation.
		logger.Warn.Printf("[liveness] could not mark player %s finished", playerID)
		c.teardown()
		return
	}

	out, err := json.Marshal(disconnectMessage{
		Type:     MessagePlayerDisconnected,
		PlayerID: playerID,
		Nickname: player.Nickname,
	})
	if err != nil {
		logger.Error.Printf("[liveness] error marshalling player_disconnected: %v", err)
		c.teardown()
		return
	}
	defaultRegistry.Broadcast(c.roomID, out, nil)

	c.teardown()
}
