package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyuan-youth/civic-server/config"
)

// Ping is a trivial liveness probe.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health reports readiness: the database must answer a ping and the chat
// backend is flagged degraded when Gemini is unavailable.
func Health(c *gin.Context) {
	status := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"chat":      "ok",
	}
	if RAG == nil {
		status["chat"] = "degraded"
	}

	sqlDB, err := config.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status["status"] = "unavailable"
		status["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "ok"
	c.JSON(http.StatusOK, status)
}
