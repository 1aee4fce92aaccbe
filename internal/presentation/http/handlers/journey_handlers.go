package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/middleware"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// JourneyHandlers contains the journey tracking and dashboard HTTP handlers.
type JourneyHandlers struct {
	journeyService *services.JourneyService
	authService    *services.AuthService
	feed           *services.FeedBroadcaster
	logger         *logging.ChanneledLogger
}

// NewJourneyHandlers creates journey handlers with injected dependencies.
func NewJourneyHandlers(
	journeyService *services.JourneyService,
	authService *services.AuthService,
	feed *services.FeedBroadcaster,
	logger *logging.ChanneledLogger,
) *JourneyHandlers {
	return &JourneyHandlers{
		journeyService: journeyService,
		authService:    authService,
		feed:           feed,
		logger:         logger,
	}
}

// Track handles POST /api/v1/journey/track.
func (h *JourneyHandlers) Track(c *gin.Context) {
	var req services.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	visitorID := c.GetString(middleware.ContextUserID)
	identityEmail := c.GetString(middleware.ContextUserEmail)

	event, err := h.journeyService.Track(&req, visitorID, identityEmail, c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "event_id": event.ID})
}

// GetBySession handles GET /api/v1/journey/session/:session_id.
func (h *JourneyHandlers) GetBySession(c *gin.Context) {
	events, err := h.journeyService.GetBySession(c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "count": len(events)})
}

// GetByEnquiry handles GET /api/v1/journey/enquiry/:enquiry_id.
func (h *JourneyHandlers) GetByEnquiry(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	events, err := h.journeyService.GetByEnquiry(c.Param("enquiry_id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "count": len(events)})
}

// Analytics handles GET /api/v1/journey/analytics.
func (h *JourneyHandlers) Analytics(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	summary, err := h.journeyService.Analytics(userID, c.Query("profile_id"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": summary})
}

// Feed handles GET /api/v1/journey/feed: a live SSE stream of the owning
// profile's incoming journey events.
func (h *JourneyHandlers) Feed(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	profileID := c.Query("profile_id")

	if _, err := h.authService.ResolveOwnership(userID, profileID); err != nil {
		respondError(c, err)
		return
	}

	ch, err := h.feed.AddClient(profileID)
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": err.Error()})
		return
	}
	defer h.feed.RemoveClient(profileID, ch)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ready\",\"profileId\":%q,\"connectionCount\":%d}\n\n",
		profileID, h.feed.ConnectionCount(profileID))
	flusher.Flush()

	heartbeat := time.NewTicker(time.Duration(config.FeedHeartbeatSeconds) * time.Second)
	defer heartbeat.Stop()

	inactivity := time.NewTimer(time.Duration(config.FeedInactivityMinutes) * time.Minute)
	defer inactivity.Stop()

	maxDuration := time.After(time.Duration(config.FeedMaxDurationMinutes) * time.Minute)

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return
			}
			if !inactivity.Stop() {
				select {
				case <-inactivity.C:
				default:
				}
			}
			inactivity.Reset(time.Duration(config.FeedInactivityMinutes) * time.Minute)

			if _, err := fmt.Fprint(w, msg); err != nil {
				h.logger.Feed().Warn("Feed write failed", "profileId", profileID, "error", err.Error())
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, "event: heartbeat\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix()); err != nil {
				return
			}
			flusher.Flush()

		case <-inactivity.C:
			fmt.Fprintf(w, "event: timeout\ndata: {\"reason\":\"inactivity\"}\n\n")
			flusher.Flush()
			return

		case <-maxDuration:
			fmt.Fprintf(w, "event: timeout\ndata: {\"reason\":\"max_duration\",\"action\":\"reconnect\"}\n\n")
			flusher.Flush()
			return

		case <-c.Request.Context().Done():
			return
		}
	}
}
