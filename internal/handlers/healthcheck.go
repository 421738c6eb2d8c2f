package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Atharrvac/vanadhikar-backend/internal/services"
)

type HealthHandler struct {
	db       *gorm.DB
	notifier services.Notifier
}

func NewHealthHandler(db *gorm.DB, notifier services.Notifier) *HealthHandler {
	return &HealthHandler{db: db, notifier: notifier}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	state := "ok"
	dbOK := true

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbOK = false
		state = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    state,
		"db":        dbOK,
		"event_bus": services.NotifierPing(c.Request.Context(), h.notifier),
	})
}
