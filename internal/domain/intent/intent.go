// Package intent defines the Intent entity and the rules governing its
// lifecycle. An Intent is the durable record of one CTA interaction, created
// before any login gating so the platform never loses sight of what a
// visitor wanted to do.
package intent

import "time"

// Status is the lifecycle state of an Intent.
type Status string

const (
	StatusCreated        Status = "created"
	StatusLoginRequired  Status = "login_required"
	StatusLoginCompleted Status = "login_completed"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	// StatusAbandoned is a designed-for terminal state reserved for a
	// future timeout sweep. Nothing transitions into it today.
	StatusAbandoned Status = "abandoned"
)

// IsTerminal reports whether a status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAbandoned
}

// FlowType is the coarse category an Intent's CTA maps to.
type FlowType string

const (
	FlowBuy      FlowType = "buy"
	FlowEnquiry  FlowType = "enquiry"
	FlowInstall  FlowType = "install"
	FlowRedirect FlowType = "redirect"
)

// ctaFlowMap is the fixed CTA → flow derivation table. It is consulted once
// at creation time; flow_type is never recomputed.
var ctaFlowMap = map[string]FlowType{
	"buy":      FlowBuy,
	"buy_now":  FlowBuy,
	"donate":   FlowBuy,
	"enquiry":  FlowEnquiry,
	"enquire":  FlowEnquiry,
	"contact":  FlowEnquiry,
	"book":     FlowEnquiry,
	"install":  FlowInstall,
	"redirect": FlowRedirect,
	"download": FlowRedirect,
	"visit":    FlowRedirect,
	"custom":   FlowRedirect,
	"none":     FlowRedirect,
}

// DeriveFlowType maps a CTA type to its flow classification. Unrecognized
// CTA types fall back to redirect, matching the platform's historical
// behavior (a "none" CTA still produces a trackable redirect intent).
func DeriveFlowType(ctaType string) FlowType {
	if flow, ok := ctaFlowMap[ctaType]; ok {
		return flow
	}
	return FlowRedirect
}

// Transaction is the opaque payment-gateway result attached to buy-flow
// intents. TapX never interprets gateway ids beyond storing them.
type Transaction struct {
	Status           string  `json:"status,omitempty"`
	Gateway          string  `json:"gateway,omitempty"`
	GatewayOrderID   string  `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string  `json:"gateway_payment_id,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	Currency         string  `json:"currency,omitempty"`
}

// Metadata is the write-once request context captured at creation. It is
// dashboard-only and never serialized on visitor-facing responses.
type Metadata struct {
	IP            string `json:"ip,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
	Referrer      string `json:"referrer,omitempty"`
	Device        string `json:"device,omitempty"`
	Source        string `json:"source,omitempty"`
	UTMSource     string `json:"utm_source,omitempty"`
	UTMMedium     string `json:"utm_medium,omitempty"`
	UTMCampaign   string `json:"utm_campaign,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Linkage carries the downstream record ids attached on completion. Only
// non-empty fields overwrite.
type Linkage struct {
	EnquiryID       *string `json:"linked_enquiry_id,omitempty"`
	OrderID         *string `json:"linked_order_id,omitempty"`
	PluginInstallID *string `json:"linked_plugin_install_id,omitempty"`
}

// Intent is the append-mostly record of one CTA interaction. The block
// fields are a denormalized snapshot taken at creation; they stay valid even
// if the block is later edited or deleted.
type Intent struct {
	ID    string `json:"intent_id"`
	Actor Actor  `json:"-"`

	ProfileID string `json:"profile_id"`
	StoreID   string `json:"store_id,omitempty"`

	BlockID    string `json:"block_id"`
	BlockType  string `json:"block_type"`
	BlockTitle string `json:"block_title"`
	CTAType    string `json:"cta_type"`
	CTALabel   string `json:"cta_label,omitempty"`

	FlowType FlowType `json:"flow_type"`
	Status   Status   `json:"status"`

	LoginRequired    bool       `json:"login_required"`
	LoginCompletedAt *time.Time `json:"login_completed_at,omitempty"`

	LinkedEnquiryID       *string `json:"linked_enquiry_id,omitempty"`
	LinkedOrderID         *string `json:"linked_order_id,omitempty"`
	LinkedPluginInstallID *string `json:"linked_plugin_install_id,omitempty"`

	Transaction *Transaction `json:"transaction,omitempty"`
	Metadata    Metadata     `json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CanResume reports whether resume(intent_id) is legal from the current
// status. Resume is valid from login_required, idempotently from created,
// and as a no-op re-resume from login_completed.
func (i *Intent) CanResume() bool {
	switch i.Status {
	case StatusLoginRequired, StatusCreated, StatusLoginCompleted:
		return true
	}
	return false
}

// CanComplete reports whether complete(intent_id) is legal. Completion is
// allowed from any non-terminal state and, idempotently, from completed.
func (i *Intent) CanComplete() bool {
	return !i.Status.IsTerminal() || i.Status == StatusCompleted
}

// CanFail reports whether fail(intent_id) is legal. Failing is allowed from
// any non-terminal state only.
func (i *Intent) CanFail() bool {
	return !i.Status.IsTerminal()
}

// CanAbandon reports whether a timeout sweep may mark the intent abandoned.
// Same rule as failing: only non-terminal intents.
func (i *Intent) CanAbandon() bool {
	return !i.Status.IsTerminal()
}
