package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/middleware"
)

// BlockHandlers contains the block catalog HTTP handlers.
type BlockHandlers struct {
	blockService *services.BlockService
	logger       *logging.ChanneledLogger
}

// NewBlockHandlers creates block handlers with injected dependencies.
func NewBlockHandlers(blockService *services.BlockService, logger *logging.ChanneledLogger) *BlockHandlers {
	return &BlockHandlers{blockService: blockService, logger: logger}
}

// Create handles POST /api/v1/blocks.
func (h *BlockHandlers) Create(c *gin.Context) {
	var req services.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	userID := c.GetString(middleware.ContextUserID)
	block, err := h.blockService.Create(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "block": block})
}

// Get handles GET /api/v1/blocks/:id.
func (h *BlockHandlers) Get(c *gin.Context) {
	block, err := h.blockService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "block": block})
}

// ListByProfile handles GET /api/v1/profiles/:id/blocks.
func (h *BlockHandlers) ListByProfile(c *gin.Context) {
	blocks, err := h.blockService.ListByProfile(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "blocks": blocks, "count": len(blocks)})
}
