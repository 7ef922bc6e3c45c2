package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Check reports service and database health
// GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	overall := "ok"
	dbStatus := "ok"
	status := http.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		overall = "degraded"
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
		"uptime":   time.Since(h.started).String(),
	})
}
