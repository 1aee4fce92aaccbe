package services

import (
	"fmt"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/email"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	catalogrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/catalog"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/tasks"
)

// EnquiryService creates leads and wires them into the journey. Linking runs
// synchronously; the counter bump and seller email are fire-and-forget.
type EnquiryService struct {
	records *userrepo.SQLRecordRepository
	users   *userrepo.SQLUserRepository
	blocks  *catalogrepo.SQLBlockRepository
	linker  *JourneyLinkService
	runner  *tasks.Runner
	mailer  *email.Client
	logger  *logging.ChanneledLogger
}

// NewEnquiryService creates a new enquiry service.
func NewEnquiryService(
	records *userrepo.SQLRecordRepository,
	users *userrepo.SQLUserRepository,
	blocks *catalogrepo.SQLBlockRepository,
	linker *JourneyLinkService,
	runner *tasks.Runner,
	mailer *email.Client,
	logger *logging.ChanneledLogger,
) *EnquiryService {
	return &EnquiryService{
		records: records,
		users:   users,
		blocks:  blocks,
		linker:  linker,
		runner:  runner,
		mailer:  mailer,
		logger:  logger,
	}
}

// CreateEnquiryRequest is the lead capture payload.
type CreateEnquiryRequest struct {
	ProfileID string `json:"profile_id"`
	BlockID   string `json:"block_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
}

// Create persists the enquiry, links the visitor's journey to it, then kicks
// off the best-effort side effects.
func (s *EnquiryService) Create(req *CreateEnquiryRequest) (*user.Enquiry, error) {
	if req.ProfileID == "" || req.Name == "" || req.Email == "" || req.Message == "" {
		return nil, fmt.Errorf("profile_id, name, email and message are required: %w", domain.ErrValidation)
	}

	profile, err := s.users.GetProfileByID(req.ProfileID)
	if err != nil {
		return nil, err
	}

	enquiry := &user.Enquiry{
		ID:        security.GenerateULID(),
		ProfileID: profile.ID,
		SellerID:  profile.UserID,
		BlockID:   req.BlockID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.records.CreateEnquiry(enquiry); err != nil {
		return nil, err
	}

	// Synchronous so the journey is queryable by enquiry id right away.
	// A linking failure does not undo the enquiry; the time-window fallback
	// covers it on first read.
	if err := s.linker.LinkToEnquiry(req.SessionID, enquiry.ID, req.Email); err != nil {
		s.logger.Journey().Warn("Journey linking failed at enquiry creation",
			"enquiryId", enquiry.ID, "error", err.Error())
	}

	if req.BlockID != "" {
		blockID := req.BlockID
		s.runner.Submit("block_enquiry_increment", func() error {
			return s.blocks.IncrementEnquiries(blockID)
		})
	}

	s.runner.Submit("enquiry_notification_email", func() error {
		seller, err := s.users.GetUserByID(profile.UserID)
		if err != nil {
			return err
		}
		return s.mailer.SendEnquiryNotification(email.EnquiryNotification{
			SellerEmail: seller.Email,
			BuyerName:   enquiry.Name,
			BuyerEmail:  enquiry.Email,
			BuyerPhone:  enquiry.Phone,
			Message:     enquiry.Message,
			ProfileName: profile.Username,
		})
	})

	s.logger.Journey().Info("Enquiry created",
		"enquiryId", enquiry.ID,
		"profileId", enquiry.ProfileID)
	return enquiry, nil
}
