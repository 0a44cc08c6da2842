// Package controllers controllers/health_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness for load balancer checks.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
