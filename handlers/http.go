package handlers

import (
	"net/http"

	"gemhall/internal/session"
	"gemhall/middlewares"
	"gemhall/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenHandler issues the identity token a client needs before opening a
// websocket. Supplying the playerId from an earlier token renews it without
// changing identity.
func TokenHandler(c *gin.Context, logger *zap.Logger) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	tokenString, playerID, err := middlewares.GenerateToken(req.PlayerID, req.Name)
	if err != nil {
		logger.Error("Failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "playerId": playerID})
}

func HealthHandler(c *gin.Context, registry *session.Registry) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": registry.Count()})
}
