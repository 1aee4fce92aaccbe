package services

import (
	"fmt"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/journey"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/performance"
	journeyrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/journey"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
)

// reconciliationWindow is how far before an enquiry's creation the fallback
// search looks for the visitor's anonymous events.
const reconciliationWindow = time.Hour

// JourneyService handles journey event ingestion and dashboard reads.
type JourneyService struct {
	events      *journeyrepo.SQLEventRepository
	records     *userrepo.SQLRecordRepository
	auth        *AuthService
	feed        *FeedBroadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewJourneyService creates a new journey service.
func NewJourneyService(
	events *journeyrepo.SQLEventRepository,
	records *userrepo.SQLRecordRepository,
	auth *AuthService,
	feed *FeedBroadcaster,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *JourneyService {
	return &JourneyService{
		events:      events,
		records:     records,
		auth:        auth,
		feed:        feed,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// TrackRequest is the event ingestion payload.
type TrackRequest struct {
	SessionID    string               `json:"session_id"`
	ProfileID    string               `json:"profile_id"`
	EventType    journey.EventType    `json:"event_type"`
	EventData    journey.EventData    `json:"event_data"`
	VisitorEmail string               `json:"visitor_email,omitempty"`
	LocationInfo journey.LocationInfo `json:"location_info,omitempty"`
	Referrer     string               `json:"referrer,omitempty"`
	UTMSource    string               `json:"utm_source,omitempty"`
	UTMMedium    string               `json:"utm_medium,omitempty"`
	UTMCampaign  string               `json:"utm_campaign,omitempty"`
}

// Track ingests one visitor event. Validation failures are the only way this
// rejects; nothing downstream can block ingestion.
func (s *JourneyService) Track(req *TrackRequest, visitorID, identityEmail, userAgent string) (*journey.Event, error) {
	marker := s.perfTracker.StartOperation("journey_track")
	defer s.perfTracker.Record(marker)

	if req.SessionID == "" || req.ProfileID == "" || req.EventType == "" {
		marker.SetError(domain.ErrValidation)
		return nil, fmt.Errorf("session_id, profile_id and event_type are required: %w", domain.ErrValidation)
	}
	if !req.EventType.IsValid() {
		marker.SetError(domain.ErrValidation)
		return nil, fmt.Errorf("unknown event_type %q: %w", req.EventType, domain.ErrValidation)
	}

	// Identity from the resolved caller wins over a caller-supplied email.
	email := identityEmail
	if email == "" {
		email = req.VisitorEmail
	}

	e := &journey.Event{
		ID:           security.GenerateULID(),
		SessionID:    req.SessionID,
		ProfileID:    req.ProfileID,
		VisitorID:    visitorID,
		VisitorEmail: email,
		EventType:    req.EventType,
		EventData:    req.EventData,
		DeviceInfo:   journey.DetectDevice(userAgent),
		LocationInfo: req.LocationInfo,
		Referrer:     req.Referrer,
		UTMSource:    req.UTMSource,
		UTMMedium:    req.UTMMedium,
		UTMCampaign:  req.UTMCampaign,
		Timestamp:    time.Now().UTC(),
	}

	if err := s.events.Insert(e); err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.feed.BroadcastEvent(e)

	s.logger.Journey().Debug("Journey event tracked",
		"eventId", e.ID,
		"sessionId", e.SessionID,
		"profileId", e.ProfileID,
		"eventType", string(e.EventType))
	marker.SetSuccess(true)
	return e, nil
}

// GetBySession returns a session's journey as display events, oldest first.
func (s *JourneyService) GetBySession(sessionID string) ([]journey.DisplayEvent, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", domain.ErrValidation)
	}

	events, err := s.events.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}
	return toDisplay(events), nil
}

// GetByEnquiry returns the journey behind an enquiry for its seller. When no
// events are linked yet it reconciles by email within the hour before the
// enquiry and backfills the link so the next call takes the direct path.
func (s *JourneyService) GetByEnquiry(enquiryID, callerUserID string) ([]journey.DisplayEvent, error) {
	marker := s.perfTracker.StartOperation("journey_by_enquiry")
	defer s.perfTracker.Record(marker)

	enquiry, err := s.records.GetEnquiryByID(enquiryID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if enquiry.SellerID != callerUserID {
		marker.SetError(domain.ErrForbidden)
		return nil, fmt.Errorf("enquiry %s not owned by caller: %w", enquiryID, domain.ErrForbidden)
	}

	events, err := s.events.ListByEnquiry(enquiryID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if len(events) == 0 {
		from := enquiry.CreatedAt.Add(-reconciliationWindow)
		events, err = s.events.ListByEmailWindow(enquiry.ProfileID, enquiry.Email, from, enquiry.CreatedAt)
		if err != nil {
			marker.SetError(err)
			return nil, err
		}
		if len(events) > 0 {
			ids := make([]string, len(events))
			for i, e := range events {
				ids[i] = e.ID
			}
			if err := s.events.BackfillEnquiryID(ids, enquiryID); err != nil {
				marker.SetError(err)
				return nil, err
			}
			s.logger.Journey().Info("Journey reconciled to enquiry",
				"enquiryId", enquiryID,
				"eventCount", len(events))
		}
	}

	marker.SetSuccess(true)
	return toDisplay(events), nil
}

// AnalyticsSummary is the dashboard analytics response.
type AnalyticsSummary struct {
	Days              int                      `json:"days"`
	EventCounts       []journeyrepo.TypeCount  `json:"event_counts"`
	TotalSessions     int                      `json:"total_sessions"`
	ConvertedSessions int                      `json:"converted_sessions"`
	ConversionRate    float64                  `json:"conversion_rate"`
	TopBlocks         []journeyrepo.BlockCount `json:"top_blocks"`
}

// Analytics aggregates a profile's journey activity over the trailing window.
func (s *JourneyService) Analytics(callerUserID, profileID string, days int) (*AnalyticsSummary, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required: %w", domain.ErrValidation)
	}
	if _, err := s.auth.ResolveOwnership(callerUserID, profileID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	counts, err := s.events.CountsByType(profileID, since)
	if err != nil {
		return nil, err
	}
	total, converted, err := s.events.SessionCounts(profileID, since)
	if err != nil {
		return nil, err
	}
	blocks, err := s.events.TopBlocks(profileID, since)
	if err != nil {
		return nil, err
	}

	rate := 0.0
	if total > 0 {
		rate = float64(converted) / float64(total)
	}

	return &AnalyticsSummary{
		Days:              days,
		EventCounts:       counts,
		TotalSessions:     total,
		ConvertedSessions: converted,
		ConversionRate:    rate,
		TopBlocks:         blocks,
	}, nil
}

func toDisplay(events []*journey.Event) []journey.DisplayEvent {
	display := make([]journey.DisplayEvent, len(events))
	for i, e := range events {
		display[i] = e.Display()
	}
	return display
}
