// main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heart-sync/models"
	"heart-sync/services"
)

// TestHealthEndpoint tests the /health endpoint.
func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(services.NewRoomService())

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

// TestCreateAndFetchRoom drives the wired router through a create/get round
// trip against the real in-memory store.
func TestCreateAndFetchRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(services.NewRoomService())

	body, _ := json.Marshal(map[string]string{"host_nickname": "hosty"})
	req, _ := http.NewRequest("POST", "/api/rooms/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var room models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	require.NotEmpty(t, room.RoomID)

	req, _ = http.NewRequest("GET", "/api/rooms/"+room.RoomID+"/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, room.RoomCode, fetched.RoomCode)
	assert.Equal(t, models.RoomWaiting, fetched.Status)
	assert.Len(t, fetched.Players, 1)
}
