package services

import (
	"errors"
	"testing"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/intent"
	"github.com/BrightFrames/tapx-go/internal/domain/journey"
)

// Buy path: anonymous visitor clicks an ungated buy CTA, pays, and the
// intent completes with the order attached.
func TestFunnelBuyFlow(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	block := env.seedBlock(t, profile.ID, "buy_now", false)

	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
		SessionID: "sess-buy",
	}, intent.Visitor{Fingerprint: "fp-buy", SessionID: "sess-buy"}, intent.Metadata{Source: "profile_page"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Status != intent.StatusCreated || created.FlowType != intent.FlowBuy {
		t.Fatalf("created = %+v, want buy flow without gating", created)
	}

	err = env.intent.Complete(created.IntentID, &CompleteIntentRequest{
		Transaction: &intent.Transaction{Status: "captured", Gateway: "razorpay", Amount: 499, Currency: "INR"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != intent.StatusCompleted {
		t.Errorf("status = %q, want completed", stored.Status)
	}

	// The buy completion minted the order record and linked it.
	if stored.LinkedOrderID == nil {
		t.Fatal("linked_order_id not set after buy completion with a gateway result")
	}
	order, err := env.records.GetOrderByID(*stored.LinkedOrderID)
	if err != nil {
		t.Fatalf("GetOrderByID() error = %v", err)
	}
	if order.IntentID != created.IntentID || order.Amount != 499 || order.Currency != "INR" || order.Status != "captured" {
		t.Errorf("order = %+v, want captured 499 INR for intent %s", order, created.IntentID)
	}

	// A retried completion keeps the same order.
	if err := env.intent.Complete(created.IntentID, &CompleteIntentRequest{
		Transaction: &intent.Transaction{Status: "captured", Gateway: "razorpay", Amount: 499, Currency: "INR"},
	}); err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	again, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if again.LinkedOrderID == nil || *again.LinkedOrderID != order.ID {
		t.Errorf("linked_order_id after retry = %v, want %q", again.LinkedOrderID, order.ID)
	}
}

// Enquiry path: visitor hits a login-gated enquire CTA, signs up, resumes,
// submits the enquiry and the intent completes with the enquiry attached.
// The anonymous journey ends up linked to the enquiry throughout.
func TestFunnelGatedEnquiryFlow(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	block := env.seedBlock(t, profile.ID, "enquire", true)

	const sessionID = "sess-enq"
	for _, eventType := range []journey.EventType{journey.EventProfileVisit, journey.EventContactClick} {
		if _, err := env.journey.Track(&TrackRequest{
			SessionID: sessionID,
			ProfileID: profile.ID,
			EventType: eventType,
			EventData: journey.EventData{BlockID: block.ID},
		}, "fp-enq", "", ""); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
	}

	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
		SessionID: sessionID,
	}, intent.Visitor{Fingerprint: "fp-enq", SessionID: sessionID}, intent.Metadata{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Status != intent.StatusLoginRequired {
		t.Fatalf("status = %q, want login_required before signup", created.Status)
	}

	signup, err := env.auth.Signup("visitor@example.com", "Visitor", "s3cret", "visitor")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	resumed, err := env.intent.Resume(created.IntentID, signup.User.ID)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.Status != intent.StatusLoginCompleted {
		t.Fatalf("status = %q, want login_completed after resume", resumed.Status)
	}

	enquiry, err := env.enquiry.Create(&CreateEnquiryRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
		SessionID: sessionID,
		Name:      "Visitor",
		Email:     "visitor@example.com",
		Message:   "Is this available?",
	})
	if err != nil {
		t.Fatalf("enquiry Create() error = %v", err)
	}
	if enquiry.SellerID != profile.UserID {
		t.Errorf("seller_id = %q, want profile owner %q", enquiry.SellerID, profile.UserID)
	}

	if err := env.intent.Complete(created.IntentID, &CompleteIntentRequest{
		LinkedEnquiryID: &enquiry.ID,
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != intent.StatusCompleted {
		t.Errorf("status = %q, want completed", stored.Status)
	}
	if stored.LinkedEnquiryID == nil || *stored.LinkedEnquiryID != enquiry.ID {
		t.Errorf("linked_enquiry_id = %v, want %q", stored.LinkedEnquiryID, enquiry.ID)
	}

	// Enquiry creation linked the session's events synchronously.
	linked, err := env.events.ListByEnquiry(enquiry.ID)
	if err != nil {
		t.Fatalf("ListByEnquiry() error = %v", err)
	}
	if len(linked) != 2 {
		t.Errorf("linked events = %d, want 2", len(linked))
	}

	env.runner.Drain()

	fresh, err := env.blocks.GetByID(block.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if fresh.Analytics.Clicks != 1 || fresh.Analytics.Enquiries != 1 || fresh.Analytics.Conversions != 1 {
		t.Errorf("counters = %+v, want clicks 1 enquiries 1 conversions 1", fresh.Analytics)
	}
}

func TestEnquiryValidation(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")

	_, err := env.enquiry.Create(&CreateEnquiryRequest{ProfileID: profile.ID, Name: "X", Email: "x@example.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing message: error = %v, want ErrValidation", err)
	}

	_, err = env.enquiry.Create(&CreateEnquiryRequest{
		ProfileID: "missing", Name: "X", Email: "x@example.com", Message: "hi",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown profile: error = %v, want ErrNotFound", err)
	}
}
