package services

import (
	"fmt"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/catalog"
	"github.com/BrightFrames/tapx-go/internal/domain/intent"
	"github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/performance"
	catalogrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/catalog"
	intentrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/intent"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/tasks"
)

// IntentService orchestrates the intent lifecycle: creation with login
// gating, capability-based resume, and terminal completion or failure.
type IntentService struct {
	intents     *intentrepo.SQLIntentRepository
	blocks      *catalogrepo.SQLBlockRepository
	records     *userrepo.SQLRecordRepository
	auth        *AuthService
	runner      *tasks.Runner
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewIntentService creates a new intent service.
func NewIntentService(
	intents *intentrepo.SQLIntentRepository,
	blocks *catalogrepo.SQLBlockRepository,
	records *userrepo.SQLRecordRepository,
	auth *AuthService,
	runner *tasks.Runner,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *IntentService {
	return &IntentService{
		intents:     intents,
		blocks:      blocks,
		records:     records,
		auth:        auth,
		runner:      runner,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// CreateIntentRequest carries the CTA click payload.
type CreateIntentRequest struct {
	ProfileID          string `json:"profile_id"`
	BlockID            string `json:"block_id"`
	StoreID            string `json:"store_id,omitempty"`
	VisitorFingerprint string `json:"visitor_fingerprint,omitempty"`
	SessionID          string `json:"session_id,omitempty"`
	Source             string `json:"source,omitempty"`
}

// IntentResult is the response for create and resume. It bundles the block
// snapshot so the client can continue the interaction without a second fetch.
type IntentResult struct {
	Success       bool            `json:"success"`
	IntentID      string          `json:"intent_id"`
	FlowType      intent.FlowType `json:"flow_type"`
	Status        intent.Status   `json:"status"`
	RequiresLogin bool            `json:"requires_login"`
	CTAType       string          `json:"cta_type"`
	BlockContent  catalog.Content `json:"block_content"`
}

// Create records one CTA interaction. The block snapshot, flow derivation
// and login gating all happen inside this call; the click counter increment
// runs in the background and never fails the creation.
func (s *IntentService) Create(req *CreateIntentRequest, actor intent.Actor, meta intent.Metadata) (*IntentResult, error) {
	marker := s.perfTracker.StartOperation("intent_create")
	defer s.perfTracker.Record(marker)

	if req.ProfileID == "" || req.BlockID == "" {
		marker.SetError(domain.ErrValidation)
		return nil, fmt.Errorf("profile_id and block_id are required: %w", domain.ErrValidation)
	}

	block, err := s.blocks.GetByID(req.BlockID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	now := time.Now().UTC()
	i := &intent.Intent{
		ID:            security.GenerateULID(),
		Actor:         actor,
		ProfileID:     req.ProfileID,
		StoreID:       req.StoreID,
		BlockID:       block.ID,
		BlockType:     block.BlockType,
		BlockTitle:    block.Title,
		CTAType:       block.CTAType,
		CTALabel:      block.CTALabel,
		FlowType:      intent.DeriveFlowType(block.CTAType),
		Status:        intent.StatusCreated,
		LoginRequired: block.RequiresLogin,
		Metadata:      meta,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	i.Metadata.Source = req.Source

	// Gating is decided here, inside creation. There is no window where a
	// gated intent sits in created.
	if block.RequiresLogin && actor.ActorType() == intent.ActorVisitor {
		i.Status = intent.StatusLoginRequired
	}

	if err := s.intents.Insert(i); err != nil {
		marker.SetError(err)
		return nil, err
	}

	blockID := block.ID
	s.runner.Submit("block_click_increment", func() error {
		return s.blocks.IncrementClicks(blockID)
	})

	s.logger.Intent().Info("Intent created",
		"intentId", i.ID,
		"profileId", i.ProfileID,
		"blockId", i.BlockID,
		"flowType", string(i.FlowType),
		"status", string(i.Status),
		"actorType", string(actor.ActorType()))

	marker.SetSuccess(true)
	return &IntentResult{
		Success:       true,
		IntentID:      i.ID,
		FlowType:      i.FlowType,
		Status:        i.Status,
		RequiresLogin: i.Status == intent.StatusLoginRequired,
		CTAType:       i.CTAType,
		BlockContent:  block.Content(),
	}, nil
}

// Resume records a completed login against a gated intent. There is no
// ownership check: the intent id is only learnable by the originating
// browser session, so holding the id is the capability.
func (s *IntentService) Resume(intentID, userID string) (*IntentResult, error) {
	marker := s.perfTracker.StartOperation("intent_resume")
	defer s.perfTracker.Record(marker)

	i, err := s.intents.GetByID(intentID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if !i.CanResume() {
		marker.SetError(domain.ErrValidation)
		return nil, fmt.Errorf("intent %s cannot be resumed from status %s: %w", intentID, i.Status, domain.ErrValidation)
	}

	if err := s.intents.UpdateResume(intentID, userID, time.Now().UTC()); err != nil {
		marker.SetError(err)
		return nil, err
	}

	block, err := s.blocks.GetByID(i.BlockID)
	content := catalog.Content{}
	if err == nil {
		content = block.Content()
	}

	s.logger.Intent().Info("Intent resumed", "intentId", intentID, "userId", userID)
	marker.SetSuccess(true)
	return &IntentResult{
		Success:      true,
		IntentID:     intentID,
		FlowType:     i.FlowType,
		Status:       intent.StatusLoginCompleted,
		CTAType:      i.CTAType,
		BlockContent: content,
	}, nil
}

// CompleteIntentRequest carries terminal linkage ids and the gateway result.
type CompleteIntentRequest struct {
	LinkedEnquiryID       *string             `json:"linked_enquiry_id,omitempty"`
	LinkedOrderID         *string             `json:"linked_order_id,omitempty"`
	LinkedPluginInstallID *string             `json:"linked_plugin_install_id,omitempty"`
	Transaction           *intent.Transaction `json:"transaction,omitempty"`
}

// Complete moves an intent to its successful terminal state. Idempotent:
// completing an already-completed intent re-sets the same fields. The
// conversion counter increment is best-effort.
func (s *IntentService) Complete(intentID string, req *CompleteIntentRequest) error {
	marker := s.perfTracker.StartOperation("intent_complete")
	defer s.perfTracker.Record(marker)

	i, err := s.intents.GetByID(intentID)
	if err != nil {
		marker.SetError(err)
		return err
	}
	if !i.CanComplete() {
		marker.SetError(domain.ErrValidation)
		return fmt.Errorf("intent %s cannot be completed from status %s: %w", intentID, i.Status, domain.ErrValidation)
	}

	linkage := intent.Linkage{
		EnquiryID:       req.LinkedEnquiryID,
		OrderID:         req.LinkedOrderID,
		PluginInstallID: req.LinkedPluginInstallID,
	}

	// A buy completion carrying a gateway result but no order id mints the
	// order record here. Only on first completion, so retries cannot mint
	// duplicates. Failure to record the order never blocks the completion.
	if i.FlowType == intent.FlowBuy && req.Transaction != nil &&
		req.LinkedOrderID == nil && i.LinkedOrderID == nil &&
		i.Status != intent.StatusCompleted {
		order := &user.Order{
			ID:        security.GenerateULID(),
			ProfileID: i.ProfileID,
			IntentID:  i.ID,
			Amount:    req.Transaction.Amount,
			Currency:  req.Transaction.Currency,
			Status:    req.Transaction.Status,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.records.CreateOrder(order); err != nil {
			s.logger.Intent().Warn("Order record creation failed",
				"intentId", intentID, "error", err.Error())
		} else {
			linkage.OrderID = &order.ID
			s.logger.Intent().Info("Order recorded for buy completion",
				"intentId", intentID, "orderId", order.ID)
		}
	}

	if err := s.intents.UpdateComplete(intentID, linkage, req.Transaction, time.Now().UTC()); err != nil {
		marker.SetError(err)
		return err
	}

	// Only the first completion counts a conversion.
	if i.Status != intent.StatusCompleted {
		blockID := i.BlockID
		s.runner.Submit("block_conversion_increment", func() error {
			return s.blocks.IncrementConversions(blockID)
		})
	}

	s.logger.Intent().Info("Intent completed", "intentId", intentID, "flowType", string(i.FlowType))
	marker.SetSuccess(true)
	return nil
}

// FailIntentRequest carries the failure reason and optional gateway result.
type FailIntentRequest struct {
	Reason      string              `json:"reason"`
	Transaction *intent.Transaction `json:"transaction,omitempty"`
}

// Fail moves an intent to its failed terminal state.
func (s *IntentService) Fail(intentID string, req *FailIntentRequest) error {
	marker := s.perfTracker.StartOperation("intent_fail")
	defer s.perfTracker.Record(marker)

	i, err := s.intents.GetByID(intentID)
	if err != nil {
		marker.SetError(err)
		return err
	}
	if !i.CanFail() {
		marker.SetError(domain.ErrValidation)
		return fmt.Errorf("intent %s cannot be failed from status %s: %w", intentID, i.Status, domain.ErrValidation)
	}

	if err := s.intents.UpdateFail(intentID, req.Reason, req.Transaction, time.Now().UTC()); err != nil {
		marker.SetError(err)
		return err
	}

	s.logger.Intent().Info("Intent failed", "intentId", intentID, "reason", req.Reason)
	marker.SetSuccess(true)
	return nil
}

// FindByProfile lists a profile's intents for the owner's dashboard. The
// metadata bag is included here and nowhere else.
func (s *IntentService) FindByProfile(callerUserID, profileID string, filters intentrepo.ListFilters) ([]*intent.Intent, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required: %w", domain.ErrValidation)
	}
	if _, err := s.auth.ResolveOwnership(callerUserID, profileID); err != nil {
		return nil, err
	}
	return s.intents.ListByProfile(profileID, filters)
}

// StatsByProfile returns the owner's intent aggregate.
func (s *IntentService) StatsByProfile(callerUserID, profileID string) (*intent.Stats, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required: %w", domain.ErrValidation)
	}
	if _, err := s.auth.ResolveOwnership(callerUserID, profileID); err != nil {
		return nil, err
	}
	return s.intents.StatsByProfile(profileID, time.Now())
}
