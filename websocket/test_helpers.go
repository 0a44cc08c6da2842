// Package websocket test_helpers.go
package websocket

import "time"

// InitTest resets the package's shared state so tests start from a clean
// registry and the production timing constants.
func InitTest() {
	defaultRegistry = NewRoomRegistry()
	livenessPollInterval = 5 * time.Second
	livenessTimeout = 15 * time.Second
}

// SetLivenessWindow shortens the monitor's timing for tests that exercise
// real timeouts.
func SetLivenessWindow(poll, timeout time.Duration) {
	livenessPollInterval = poll
	livenessTimeout = timeout
}
