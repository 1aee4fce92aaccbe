package services

import (
	"fmt"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	catalogrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/tasks"
)

// BlockService is thin pass-through CRUD over the block catalog.
type BlockService struct {
	blocks *catalogrepo.SQLBlockRepository
	auth   *AuthService
	runner *tasks.Runner
	logger *logging.ChanneledLogger
}

// NewBlockService creates a new block service.
func NewBlockService(blocks *catalogrepo.SQLBlockRepository, auth *AuthService, runner *tasks.Runner, logger *logging.ChanneledLogger) *BlockService {
	return &BlockService{blocks: blocks, auth: auth, runner: runner, logger: logger}
}

// CreateBlockRequest is the block creation payload.
type CreateBlockRequest struct {
	ProfileID     string `json:"profile_id"`
	BlockType     string `json:"block_type"`
	Title         string `json:"title"`
	CTAType       string `json:"cta_type"`
	CTALabel      string `json:"cta_label,omitempty"`
	RequiresLogin bool   `json:"requires_login"`
}

// Create adds a block to a profile the caller owns.
func (s *BlockService) Create(callerUserID string, req *CreateBlockRequest) (*catalog.Block, error) {
	if req.ProfileID == "" || req.BlockType == "" || req.Title == "" {
		return nil, fmt.Errorf("profile_id, block_type and title are required: %w", domain.ErrValidation)
	}
	if _, err := s.auth.ResolveOwnership(callerUserID, req.ProfileID); err != nil {
		return nil, err
	}

	ctaType := req.CTAType
	if ctaType == "" {
		ctaType = "none"
	}

	b := &catalog.Block{
		ID:            security.GenerateULID(),
		ProfileID:     req.ProfileID,
		BlockType:     req.BlockType,
		Title:         req.Title,
		CTAType:       ctaType,
		CTALabel:      req.CTALabel,
		RequiresLogin: req.RequiresLogin,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.blocks.Create(b); err != nil {
		return nil, err
	}

	s.logger.Intent().Info("Block created", "blockId", b.ID, "profileId", b.ProfileID, "ctaType", b.CTAType)
	return b, nil
}

// Get resolves a block for public display and counts the view best-effort.
func (s *BlockService) Get(id string) (*catalog.Block, error) {
	b, err := s.blocks.GetByID(id)
	if err != nil {
		return nil, err
	}

	blockID := b.ID
	s.runner.Submit("block_view_increment", func() error {
		return s.blocks.IncrementViews(blockID)
	})
	return b, nil
}

// ListByProfile returns a profile's blocks for public display.
func (s *BlockService) ListByProfile(profileID string) ([]*catalog.Block, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required: %w", domain.ErrValidation)
	}
	return s.blocks.ListByProfile(profileID)
}
