package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/domain/intent"
	"github.com/BrightFrames/tapx-go/internal/domain/journey"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	intentrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/intent"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/middleware"
)

// IntentHandlers contains the intent lifecycle HTTP handlers.
type IntentHandlers struct {
	intentService *services.IntentService
	logger        *logging.ChanneledLogger
}

// NewIntentHandlers creates intent handlers with injected dependencies.
func NewIntentHandlers(intentService *services.IntentService, logger *logging.ChanneledLogger) *IntentHandlers {
	return &IntentHandlers{intentService: intentService, logger: logger}
}

// Create handles POST /api/v1/intents.
func (h *IntentHandlers) Create(c *gin.Context) {
	var req services.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	actor := resolveActor(c, &req)
	meta := requestMetadata(c)

	result, err := h.intentService.Create(&req, actor, meta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Resume handles PUT /api/v1/intents/:id/resume.
func (h *IntentHandlers) Resume(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	result, err := h.intentService.Resume(c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Complete handles PUT /api/v1/intents/:id/complete.
func (h *IntentHandlers) Complete(c *gin.Context) {
	var req services.CompleteIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	intentID := c.Param("id")
	if err := h.intentService.Complete(intentID, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "intent_id": intentID})
}

// Fail handles PUT /api/v1/intents/:id/fail.
func (h *IntentHandlers) Fail(c *gin.Context) {
	var req services.FailIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	intentID := c.Param("id")
	if err := h.intentService.Fail(intentID, &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "intent_id": intentID})
}

// dashboardIntent is the owner-facing listing shape. Unlike the public
// intent shape it includes the metadata bag.
type dashboardIntent struct {
	*intent.Intent
	ActorType string          `json:"actor_type"`
	Metadata  intent.Metadata `json:"metadata"`
}

// List handles GET /api/v1/intents.
func (h *IntentHandlers) List(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	filters := intentrepo.ListFilters{
		FlowType: c.Query("flow_type"),
		Status:   c.Query("status"),
		Limit:    limit,
		Skip:     skip,
	}

	intents, err := h.intentService.FindByProfile(userID, c.Query("profile_id"), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	listing := make([]dashboardIntent, len(intents))
	for i, it := range intents {
		listing[i] = dashboardIntent{
			Intent:    it,
			ActorType: string(it.Actor.ActorType()),
			Metadata:  it.Metadata,
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "intents": listing, "count": len(listing)})
}

// Stats handles GET /api/v1/intents/stats.
func (h *IntentHandlers) Stats(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	stats, err := h.intentService.StatsByProfile(userID, c.Query("profile_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// resolveActor builds the actor union from the resolved identity, falling
// back to the visitor fields carried in the body or headers.
func resolveActor(c *gin.Context, req *services.CreateIntentRequest) intent.Actor {
	if userID := c.GetString(middleware.ContextUserID); userID != "" {
		return intent.User{ID: userID}
	}

	fingerprint := req.VisitorFingerprint
	if fingerprint == "" {
		fingerprint = c.GetHeader("X-Visitor-Fingerprint")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader("X-TapX-Session-ID")
	}
	return intent.Visitor{Fingerprint: fingerprint, SessionID: sessionID}
}

// requestMetadata captures the write-once request context.
func requestMetadata(c *gin.Context) intent.Metadata {
	ua := c.Request.UserAgent()
	return intent.Metadata{
		IP:          c.ClientIP(),
		UserAgent:   ua,
		Referrer:    c.Request.Referer(),
		Device:      journey.DetectDevice(ua).DeviceType,
		UTMSource:   c.Query("utm_source"),
		UTMMedium:   c.Query("utm_medium"),
		UTMCampaign: c.Query("utm_campaign"),
	}
}
