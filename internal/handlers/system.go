package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/cache"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/services"
	"gorm.io/gorm"
)

// SystemHandler serves health checks and the manual spreadsheet resync.
type SystemHandler struct {
	db      *gorm.DB
	cache   *cache.Cache
	testers *services.TesterService
}

func NewSystemHandler(db *gorm.DB, c *cache.Cache, testers *services.TesterService) *SystemHandler {
	return &SystemHandler{
		db:      db,
		cache:   c,
		testers: testers,
	}
}

// Health pings the database and, when enabled, Redis.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		apierrors.ServiceUnavailable(c, "Database is unreachable")
		return
	}

	cacheStatus := "disabled"
	if h.cache.Enabled() {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
		}
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
		"cache":    cacheStatus,
	})
}

// SyncTesters queues every tester for the spreadsheet mirror.
func (h *SystemHandler) SyncTesters(c *gin.Context) {
	queued, err := h.testers.ResyncAll()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusAccepted, gin.H{"queued": queued})
}
