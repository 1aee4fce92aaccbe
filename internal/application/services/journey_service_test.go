package services

import (
	"errors"
	"testing"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/journey"
	"github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
)

func TestTrackValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  TrackRequest
	}{
		{"missing session", TrackRequest{ProfileID: "p", EventType: journey.EventLinkClick}},
		{"missing profile", TrackRequest{SessionID: "s", EventType: journey.EventLinkClick}},
		{"missing event type", TrackRequest{SessionID: "s", ProfileID: "p"}},
		{"unknown event type", TrackRequest{SessionID: "s", ProfileID: "p", EventType: "teleport"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.journey.Track(&tt.req, "", "", ""); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Track() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestTrackIdentityAndDevice(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")

	const androidUA = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36"

	e, err := env.journey.Track(&TrackRequest{
		SessionID:    "sess-1",
		ProfileID:    profile.ID,
		EventType:    journey.EventProductView,
		EventData:    journey.EventData{BlockID: "blk-1"},
		VisitorEmail: "form@example.com",
	}, "visitor-1", "token@example.com", androidUA)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if e.VisitorEmail != "token@example.com" {
		t.Errorf("visitor_email = %q, token identity must win over the payload email", e.VisitorEmail)
	}
	if e.DeviceInfo.DeviceType != "mobile" {
		t.Errorf("device_type = %q, want mobile", e.DeviceInfo.DeviceType)
	}

	stored, err := env.events.ListBySession("sess-1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("len(stored) = %d, want 1", len(stored))
	}
	if stored[0].EventData.BlockID != "blk-1" {
		t.Errorf("stored block_id = %q, want blk-1", stored[0].EventData.BlockID)
	}
}

func TestGetByEnquiryReconciliation(t *testing.T) {
	env := newTestEnv(t)
	seller, profile := env.seedSeller(t, "seller@example.com", "seller")
	stranger, _ := env.seedSeller(t, "stranger@example.com", "stranger")

	// Anonymous-then-identified journey: the email only appears on the
	// later events, and nothing carries an enquiry id yet.
	for _, ev := range []struct {
		eventType journey.EventType
		email     string
	}{
		{journey.EventProfileVisit, ""},
		{journey.EventProductView, ""},
		{journey.EventFormComplete, "buyer@example.com"},
	} {
		if _, err := env.journey.Track(&TrackRequest{
			SessionID: "sess-old",
			ProfileID: profile.ID,
			EventType: ev.eventType,
		}, "", ev.email, ""); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
	}

	enq := &user.Enquiry{
		ID:        security.GenerateULID(),
		ProfileID: profile.ID,
		SellerID:  seller.ID,
		Name:      "Buyer",
		Email:     "buyer@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := env.records.CreateEnquiry(enq); err != nil {
		t.Fatalf("CreateEnquiry() error = %v", err)
	}

	if _, err := env.journey.GetByEnquiry(enq.ID, stranger.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign caller: error = %v, want ErrForbidden", err)
	}

	display, err := env.journey.GetByEnquiry(enq.ID, seller.ID)
	if err != nil {
		t.Fatalf("GetByEnquiry() error = %v", err)
	}
	if len(display) != 1 {
		t.Fatalf("reconciled events = %d, want 1 (only the identified event carries the email)", len(display))
	}

	// Reconciliation persists: the next call resolves directly by id.
	linked, err := env.events.ListByEnquiry(enq.ID)
	if err != nil {
		t.Fatalf("ListByEnquiry() error = %v", err)
	}
	if len(linked) != 1 {
		t.Errorf("backfilled events = %d, want 1", len(linked))
	}
	if _, err := env.journey.GetByEnquiry(enq.ID, seller.ID); err != nil {
		t.Errorf("second GetByEnquiry() error = %v", err)
	}
}

func TestLinkToEnquiryMatchesSessionOrEmail(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")

	track := func(sessionID, email string) {
		t.Helper()
		if _, err := env.journey.Track(&TrackRequest{
			SessionID: sessionID,
			ProfileID: profile.ID,
			EventType: journey.EventLinkClick,
		}, "", email, ""); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
	}
	track("sess-a", "")
	track("sess-b", "buyer@example.com")
	track("sess-c", "other@example.com")

	enquiryID := security.GenerateULID()
	if err := env.linker.LinkToEnquiry("sess-a", enquiryID, "buyer@example.com"); err != nil {
		t.Fatalf("LinkToEnquiry() error = %v", err)
	}

	linked, err := env.events.ListByEnquiry(enquiryID)
	if err != nil {
		t.Fatalf("ListByEnquiry() error = %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("linked events = %d, want 2 (session match plus email match)", len(linked))
	}
	for _, e := range linked {
		if e.SessionID == "sess-c" {
			t.Error("sess-c linked; neither its session nor email matched")
		}
	}
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	owner, profile := env.seedSeller(t, "owner@example.com", "owner")

	empty, err := env.journey.Analytics(owner.ID, profile.ID, 0)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if empty.Days != 7 {
		t.Errorf("days = %d, want default 7", empty.Days)
	}
	if empty.ConversionRate != 0 {
		t.Errorf("conversion rate = %v, want 0 with no sessions", empty.ConversionRate)
	}

	// Two sessions, one of which converts.
	track := func(sessionID string, eventType journey.EventType) {
		t.Helper()
		if _, err := env.journey.Track(&TrackRequest{
			SessionID: sessionID,
			ProfileID: profile.ID,
			EventType: eventType,
			EventData: journey.EventData{BlockID: "blk-top"},
		}, "", "", ""); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
	}
	track("sess-1", journey.EventProfileVisit)
	track("sess-1", journey.EventFormComplete)
	track("sess-2", journey.EventProfileVisit)

	if err := env.linker.LinkToEnquiry("sess-1", security.GenerateULID(), ""); err != nil {
		t.Fatalf("LinkToEnquiry() error = %v", err)
	}

	summary, err := env.journey.Analytics(owner.ID, profile.ID, 7)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if summary.TotalSessions != 2 {
		t.Errorf("total sessions = %d, want 2", summary.TotalSessions)
	}
	if summary.ConvertedSessions != 1 {
		t.Errorf("converted sessions = %d, want 1", summary.ConvertedSessions)
	}
	if summary.ConversionRate != 0.5 {
		t.Errorf("conversion rate = %v, want 0.5", summary.ConversionRate)
	}
	if len(summary.TopBlocks) == 0 || summary.TopBlocks[0].BlockID != "blk-top" {
		t.Errorf("top blocks = %+v, want blk-top first", summary.TopBlocks)
	}
}
