package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const apiVersion = "1.0.0"

// HealthCheck reports liveness and whether the database answers.
func (h *Handlers) HealthCheck(c *gin.Context) {
	log.Debug("Health check endpoint hit")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, database, code := "healthy", "ok", http.StatusOK
	if err := h.Store.DB().PingContext(ctx); err != nil {
		log.Errorf("HealthCheck: Database ping failed: %v", err)
		status, database, code = "unhealthy", "unavailable", http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":   status,
		"service":  h.Config.AppName,
		"version":  apiVersion,
		"database": database,
	}
	if h.Queue != nil {
		body["queued_jobs"] = h.Queue.Pending()
	}
	c.JSON(code, body)
}

func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + h.Config.AppName,
		"version": apiVersion,
	})
}
