package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lunch-order-api/internal/database"
	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	conn *database.Conn
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(conn *database.Conn) *HealthHandler {
	return &HealthHandler{conn: conn}
}

// Health pings the database.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.conn.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		status, _ := apierrors.Translate(err)
		c.JSON(status, gin.H{
			"status":  "unavailable",
			"message": "Lunch Order API cannot reach the database",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Lunch Order API is running",
	})
}
