package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/performance"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
)

// DatabaseHandlers contains database status HTTP handlers.
type DatabaseHandlers struct {
	db          *database.DB
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDBHandlers creates database handlers with injected dependencies.
func NewDBHandlers(db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DatabaseHandlers {
	return &DatabaseHandlers{db: db, logger: logger, perfTracker: perfTracker}
}

// Status handles GET /api/v1/db/status.
func (h *DatabaseHandlers) Status(c *gin.Context) {
	start := time.Now()

	status := "ok"
	var errMsg string
	if err := h.db.Ping(); err != nil {
		status = "unreachable"
		errMsg = err.Error()
		h.logger.Database().Error("Database ping failed", "error", errMsg)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"connection":   h.db.ConnectionInfo(),
		"error":        errMsg,
		"responseTime": time.Since(start).String(),
		"uptime":       h.perfTracker.Uptime().String(),
	})
}
