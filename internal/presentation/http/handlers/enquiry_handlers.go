package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
)

// EnquiryHandlers contains the lead capture HTTP handlers.
type EnquiryHandlers struct {
	enquiryService *services.EnquiryService
	logger         *logging.ChanneledLogger
}

// NewEnquiryHandlers creates enquiry handlers with injected dependencies.
func NewEnquiryHandlers(enquiryService *services.EnquiryService, logger *logging.ChanneledLogger) *EnquiryHandlers {
	return &EnquiryHandlers{enquiryService: enquiryService, logger: logger}
}

// Create handles POST /api/v1/enquiries.
func (h *EnquiryHandlers) Create(c *gin.Context) {
	var req services.CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = c.GetHeader("X-TapX-Session-ID")
	}

	enquiry, err := h.enquiryService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "enquiry": enquiry})
}
