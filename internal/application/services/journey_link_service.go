package services

import (
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	journeyrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/journey"
)

// JourneyLinkService bridges the anonymous event stream to an identified
// enquiry the moment the visitor's email becomes known.
type JourneyLinkService struct {
	events *journeyrepo.SQLEventRepository
	logger *logging.ChanneledLogger
}

// NewJourneyLinkService creates a new journey link service.
func NewJourneyLinkService(events *journeyrepo.SQLEventRepository, logger *logging.ChanneledLogger) *JourneyLinkService {
	return &JourneyLinkService{events: events, logger: logger}
}

// LinkToEnquiry attaches enquiry_id and visitor_email to every event matching
// the session id or the email. Runs synchronously at enquiry creation so the
// journey is immediately queryable by enquiry id. Idempotent.
//
// Matching on email as well as session can attach events from other sessions
// that used the same email, e.g. a shared device. That behavior is accepted:
// the feed is advisory and sellers read it per enquiry.
func (s *JourneyLinkService) LinkToEnquiry(sessionID, enquiryID, visitorEmail string) error {
	linked, err := s.events.LinkToEnquiry(sessionID, enquiryID, visitorEmail)
	if err != nil {
		return err
	}

	s.logger.Journey().Info("Journey linked to enquiry",
		"enquiryId", enquiryID,
		"sessionId", sessionID,
		"eventsLinked", linked)
	return nil
}
