package intent

import "testing"

func TestDeriveFlowType(t *testing.T) {
	tests := []struct {
		ctaType string
		want    FlowType
	}{
		{"buy", FlowBuy},
		{"buy_now", FlowBuy},
		{"donate", FlowBuy},
		{"enquiry", FlowEnquiry},
		{"enquire", FlowEnquiry},
		{"contact", FlowEnquiry},
		{"book", FlowEnquiry},
		{"install", FlowInstall},
		{"redirect", FlowRedirect},
		{"download", FlowRedirect},
		{"visit", FlowRedirect},
		{"custom", FlowRedirect},
		{"none", FlowRedirect},
		{"something_new", FlowRedirect},
		{"", FlowRedirect},
	}

	for _, tt := range tests {
		if got := DeriveFlowType(tt.ctaType); got != tt.want {
			t.Errorf("DeriveFlowType(%q) = %q, want %q", tt.ctaType, got, tt.want)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusAbandoned}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}

	open := []Status{StatusCreated, StatusLoginRequired, StatusLoginCompleted, StatusInProgress}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestLifecycleGuards(t *testing.T) {
	tests := []struct {
		status      Status
		canResume   bool
		canComplete bool
		canFail     bool
	}{
		{StatusCreated, true, true, true},
		{StatusLoginRequired, true, true, true},
		{StatusLoginCompleted, true, true, true},
		{StatusInProgress, false, true, true},
		{StatusCompleted, false, true, false},
		{StatusFailed, false, false, false},
		{StatusAbandoned, false, false, false},
	}

	for _, tt := range tests {
		i := &Intent{Status: tt.status}
		if got := i.CanResume(); got != tt.canResume {
			t.Errorf("CanResume from %q = %v, want %v", tt.status, got, tt.canResume)
		}
		if got := i.CanComplete(); got != tt.canComplete {
			t.Errorf("CanComplete from %q = %v, want %v", tt.status, got, tt.canComplete)
		}
		if got := i.CanFail(); got != tt.canFail {
			t.Errorf("CanFail from %q = %v, want %v", tt.status, got, tt.canFail)
		}
		if got := i.CanAbandon(); got != tt.canFail {
			t.Errorf("CanAbandon from %q = %v, want %v", tt.status, got, tt.canFail)
		}
	}
}

func TestActorUnion(t *testing.T) {
	var a Actor = Visitor{Fingerprint: "fp-1", SessionID: "sess-1"}
	if a.ActorType() != ActorVisitor {
		t.Errorf("Visitor.ActorType() = %q, want %q", a.ActorType(), ActorVisitor)
	}

	a = User{ID: "user-1"}
	if a.ActorType() != ActorUser {
		t.Errorf("User.ActorType() = %q, want %q", a.ActorType(), ActorUser)
	}
}
