package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "using_memory"
	if s.db != nil {
		dbStatus = "ok"
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "OK",
		"message":   "Sharing Service API is running",
		"service":   serviceName,
		"version":   serviceVersion,
		"db":        dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
