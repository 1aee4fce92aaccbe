package services

import (
	"errors"
	"testing"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/intent"
	intentrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/intent"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

func TestIntentCreateLoginGating(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")

	gated := env.seedBlock(t, profile.ID, "enquire", true)
	open := env.seedBlock(t, profile.ID, "buy_now", false)

	tests := []struct {
		name       string
		blockID    string
		actor      intent.Actor
		wantStatus intent.Status
		wantFlow   intent.FlowType
		wantLogin  bool
	}{
		{
			name:       "visitor on gated block waits for login",
			blockID:    gated.ID,
			actor:      intent.Visitor{Fingerprint: "fp-1", SessionID: "sess-1"},
			wantStatus: intent.StatusLoginRequired,
			wantFlow:   intent.FlowEnquiry,
			wantLogin:  true,
		},
		{
			// requires_login reports the gating outcome for this caller,
			// not the block's flag: an authenticated caller is never gated.
			name:       "authenticated user skips the gate",
			blockID:    gated.ID,
			actor:      intent.User{ID: "user-1"},
			wantStatus: intent.StatusCreated,
			wantFlow:   intent.FlowEnquiry,
			wantLogin:  false,
		},
		{
			name:       "visitor on open block proceeds",
			blockID:    open.ID,
			actor:      intent.Visitor{Fingerprint: "fp-2", SessionID: "sess-2"},
			wantStatus: intent.StatusCreated,
			wantFlow:   intent.FlowBuy,
			wantLogin:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.intent.Create(&CreateIntentRequest{
				ProfileID: profile.ID,
				BlockID:   tt.blockID,
			}, tt.actor, intent.Metadata{})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if res.FlowType != tt.wantFlow {
				t.Errorf("flow = %q, want %q", res.FlowType, tt.wantFlow)
			}
			if res.RequiresLogin != tt.wantLogin {
				t.Errorf("requires_login = %v, want %v", res.RequiresLogin, tt.wantLogin)
			}
			if res.BlockContent.BlockID != tt.blockID {
				t.Errorf("block snapshot id = %q, want %q", res.BlockContent.BlockID, tt.blockID)
			}
		})
	}
}

func TestIntentCreateRejections(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	visitor := intent.Visitor{Fingerprint: "fp", SessionID: "sess"}

	_, err := env.intent.Create(&CreateIntentRequest{BlockID: "some-block"}, visitor, intent.Metadata{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing profile_id: error = %v, want ErrValidation", err)
	}

	_, err = env.intent.Create(&CreateIntentRequest{ProfileID: profile.ID, BlockID: "nope"}, visitor, intent.Metadata{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown block: error = %v, want ErrNotFound", err)
	}
}

func TestVisitorFingerprintEncryptedAtRest(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	block := env.seedBlock(t, profile.ID, "buy_now", false)

	config.AESKey = "6368616e676520746869732070617373776f726420746f206120736563726574"
	defer func() { config.AESKey = "" }()

	const fingerprint = "fp-3c29a1"
	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
	}, intent.Visitor{Fingerprint: fingerprint, SessionID: "sess-1"}, intent.Metadata{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var raw string
	if err := env.db.QueryRow(`SELECT visitor_fingerprint FROM intents WHERE id = ?`, created.IntentID).Scan(&raw); err != nil {
		t.Fatalf("raw column read: %v", err)
	}
	if raw == fingerprint {
		t.Error("fingerprint stored in plaintext despite AES_KEY being set")
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	visitor, ok := stored.Actor.(intent.Visitor)
	if !ok {
		t.Fatalf("actor = %T, want intent.Visitor", stored.Actor)
	}
	if visitor.Fingerprint != fingerprint {
		t.Errorf("hydrated fingerprint = %q, want %q", visitor.Fingerprint, fingerprint)
	}
}

func TestIntentResume(t *testing.T) {
	env := newTestEnv(t)
	u, profile := env.seedSeller(t, "buyer@example.com", "buyer")
	gated := env.seedBlock(t, profile.ID, "enquire", true)

	if _, err := env.intent.Resume("missing-id", u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("resume unknown intent: error = %v, want ErrNotFound", err)
	}

	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   gated.ID,
	}, intent.Visitor{Fingerprint: "fp", SessionID: "sess"}, intent.Metadata{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := env.intent.Resume(created.IntentID, u.ID)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if res.Status != intent.StatusLoginCompleted {
		t.Errorf("status = %q, want %q", res.Status, intent.StatusLoginCompleted)
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	actor, ok := stored.Actor.(intent.User)
	if !ok {
		t.Fatalf("actor = %T, want intent.User", stored.Actor)
	}
	if actor.ID != u.ID {
		t.Errorf("actor id = %q, want %q", actor.ID, u.ID)
	}
	if stored.LoginCompletedAt == nil {
		t.Error("login_completed_at not set")
	}

	// Resuming again is a no-op, not an error.
	if _, err := env.intent.Resume(created.IntentID, u.ID); err != nil {
		t.Errorf("second resume: error = %v", err)
	}
}

func TestIntentCompleteIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	block := env.seedBlock(t, profile.ID, "buy_now", false)

	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
	}, intent.Visitor{Fingerprint: "fp", SessionID: "sess"}, intent.Metadata{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	orderID := "order-123"
	err = env.intent.Complete(created.IntentID, &CompleteIntentRequest{
		LinkedOrderID: &orderID,
		Transaction: &intent.Transaction{
			Status:         "captured",
			Gateway:        "razorpay",
			GatewayOrderID: "rzp-1",
			Amount:         499,
			Currency:       "INR",
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// A retried completion without linkage must not clear the stored ids.
	if err := env.intent.Complete(created.IntentID, &CompleteIntentRequest{}); err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != intent.StatusCompleted {
		t.Errorf("status = %q, want completed", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if stored.LinkedOrderID == nil || *stored.LinkedOrderID != orderID {
		t.Errorf("linked_order_id = %v, want %q", stored.LinkedOrderID, orderID)
	}
	if stored.Transaction == nil || stored.Transaction.GatewayOrderID != "rzp-1" {
		t.Errorf("transaction = %+v, want gateway order rzp-1", stored.Transaction)
	}

	env.runner.Drain()

	fresh, err := env.blocks.GetByID(block.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if fresh.Analytics.Clicks != 1 {
		t.Errorf("clicks = %d, want 1", fresh.Analytics.Clicks)
	}
	if fresh.Analytics.Conversions != 1 {
		t.Errorf("conversions = %d, want 1 (double completion must not double count)", fresh.Analytics.Conversions)
	}
}

func TestIntentFail(t *testing.T) {
	env := newTestEnv(t)
	_, profile := env.seedSeller(t, "seller@example.com", "seller")
	block := env.seedBlock(t, profile.ID, "buy_now", false)

	created, err := env.intent.Create(&CreateIntentRequest{
		ProfileID: profile.ID,
		BlockID:   block.ID,
	}, intent.Visitor{Fingerprint: "fp", SessionID: "sess"}, intent.Metadata{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = env.intent.Fail(created.IntentID, &FailIntentRequest{Reason: "payment declined"})
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	stored, err := env.intents.GetByID(created.IntentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != intent.StatusFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
	if stored.Metadata.FailureReason != "payment declined" {
		t.Errorf("failure reason = %q", stored.Metadata.FailureReason)
	}

	// Terminal states reject further transitions.
	if err := env.intent.Fail(created.IntentID, &FailIntentRequest{Reason: "again"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("fail after failed: error = %v, want ErrValidation", err)
	}
	if _, err := env.intent.Resume(created.IntentID, "user-1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("resume after failed: error = %v, want ErrValidation", err)
	}
}

func TestIntentDashboard(t *testing.T) {
	env := newTestEnv(t)
	owner, profile := env.seedSeller(t, "owner@example.com", "owner")
	other, _ := env.seedSeller(t, "other@example.com", "other")
	buy := env.seedBlock(t, profile.ID, "buy_now", false)
	enq := env.seedBlock(t, profile.ID, "enquire", false)

	for i, blockID := range []string{buy.ID, buy.ID, enq.ID} {
		res, err := env.intent.Create(&CreateIntentRequest{
			ProfileID: profile.ID,
			BlockID:   blockID,
		}, intent.Visitor{Fingerprint: "fp", SessionID: "sess"}, intent.Metadata{})
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
		if i == 0 {
			if err := env.intent.Complete(res.IntentID, &CompleteIntentRequest{}); err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
		}
	}

	if _, err := env.intent.FindByProfile(other.ID, profile.ID, intentrepo.ListFilters{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign caller: error = %v, want ErrForbidden", err)
	}

	list, err := env.intent.FindByProfile(owner.ID, profile.ID, intentrepo.ListFilters{})
	if err != nil {
		t.Fatalf("FindByProfile() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}

	stats, err := env.intent.StatsByProfile(owner.ID, profile.ID)
	if err != nil {
		t.Fatalf("StatsByProfile() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if got := stats.ByFlow[intent.FlowBuy]; got.Total != 2 || got.Completed != 1 {
		t.Errorf("buy flow = %+v, want total 2 completed 1", got)
	}
	if stats.Today != 3 {
		t.Errorf("today = %d, want 3", stats.Today)
	}
}
