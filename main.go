// main.go
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"heart-sync/controllers"
	"heart-sync/logger"
	"heart-sync/middleware"
	"heart-sync/services"
	"heart-sync/websocket"
)

// setupRouter wires the REST API and the game socket onto a gin engine.
func setupRouter(roomService services.RoomServiceInterface) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	messenger := websocket.NewMessenger()
	roomController := controllers.NewRoomController(roomService, messenger)

	// Health check for load balancers.
	router.GET("/health", controllers.Health)

	// Room bookkeeping API, mirroring /api/rooms/ of the original backend.
	rooms := router.Group("/api/rooms")
	{
		rooms.POST("/", roomController.CreateRoom)
		rooms.POST("/join/", roomController.JoinRoom)
		rooms.GET("/:room_id/", roomController.GetRoom)
		rooms.POST("/:room_id/leave/", roomController.LeaveRoom)
		rooms.POST("/:room_id/ready/", roomController.ReadyPlayer)
		rooms.POST("/:room_id/start/", roomController.StartGame)
		rooms.DELETE("/:room_id/delete/", roomController.DeleteRoom)
		rooms.GET("/:room_id/qrcode", roomController.GetRoomQRCode)
	}

	// Per-room game socket; the room ID is fixed at connect time.
	router.GET("/ws/game/:room_id", func(c *gin.Context) {
		websocket.ServeWs(c.Writer, c.Request, c.Param("room_id"), roomService)
	})

	return router
}

func main() {
	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("No .env file found; using process environment")
	}
	logger.SetLogLevel(os.Getenv("APP_ENV"))

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(services.NewRoomService())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // Default for local testing
	}

	logger.Info.Printf("heart-sync backend listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
