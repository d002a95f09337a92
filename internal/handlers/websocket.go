package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/services"
)

// WebSocketHandler upgrades the request and registers the caller with the
// notification hub.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		services.HandleWebSocket(hub, c.Writer, c.Request, userID)
	}
}

// Health reports liveness and the number of connected websocket clients.
func Health(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "ok",
			"connections": hub.GetConnectedClients(),
		})
	}
}
