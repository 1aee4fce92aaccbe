// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrightFrames/tapx-go/internal/domain"
	"github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// AuthService handles signup, login and bearer-token resolution.
type AuthService struct {
	users  *userrepo.SQLUserRepository
	logger *logging.ChanneledLogger

	// otpStore holds short-lived verification codes. Process-local only;
	// codes do not survive a restart.
	otpStore *gocache.Cache
}

// NewAuthService creates a new auth service.
func NewAuthService(users *userrepo.SQLUserRepository, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		users:    users,
		logger:   logger,
		otpStore: gocache.New(config.OTPLifetime, config.OTPSweep),
	}
}

// AuthResult is the response shape for signup and login.
type AuthResult struct {
	Success bool          `json:"success"`
	Token   string        `json:"token,omitempty"`
	User    *user.User    `json:"user,omitempty"`
	Profile *user.Profile `json:"profile,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Signup registers a new account with a bcrypt-hashed password and creates
// its profile in the same call.
func (s *AuthService) Signup(email, name, password, username string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || username == "" {
		return nil, fmt.Errorf("email, password and username are required: %w", domain.ErrValidation)
	}

	if _, err := s.users.GetUserByEmail(email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           security.GenerateULID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(u); err != nil {
		return nil, err
	}

	p := &user.Profile{
		ID:        security.GenerateULID(),
		UserID:    u.ID,
		Username:  strings.ToLower(strings.TrimSpace(username)),
		CreatedAt: now,
	}
	if err := s.users.CreateProfile(p); err != nil {
		return nil, err
	}

	token, err := security.GenerateUserToken(u.ID, u.Email, p.ID, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Auth().Info("User signed up", "userId", u.ID, "profileId", p.ID)
	return &AuthResult{Success: true, Token: token, User: u, Profile: p}, nil
}

// Login verifies credentials and issues a fresh token.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}

	u, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Auth().Warn("Login rejected", "email", email)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrForbidden)
	}

	var profile *user.Profile
	profileID := ""
	if p, err := s.users.GetProfileByUserID(u.ID); err == nil {
		profile = p
		profileID = p.ID
	}

	token, err := security.GenerateUserToken(u.ID, u.Email, profileID, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Auth().Info("User logged in", "userId", u.ID)
	return &AuthResult{Success: true, Token: token, User: u, Profile: profile}, nil
}

// Decode validates a bearer token and returns its claims. Used by clients to
// check whether a stored token is still good.
func (s *AuthService) Decode(token string) (*security.UserClaims, error) {
	claims, err := security.ValidateUserToken(token, config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrForbidden)
	}
	return claims, nil
}

// IssueOTP stores a one-time code for an email with TTL eviction.
func (s *AuthService) IssueOTP(email string) (string, error) {
	code, err := security.GenerateOTP(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	s.otpStore.Set(strings.ToLower(email), code, gocache.DefaultExpiration)
	return code, nil
}

// LoginWithOTP verifies a one-time code and issues a fresh token for the
// account registered under the email. The code is consumed on success.
func (s *AuthService) LoginWithOTP(email, code string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return nil, fmt.Errorf("email and code are required: %w", domain.ErrValidation)
	}

	if !s.VerifyOTP(email, code) {
		s.logger.Auth().Warn("OTP login rejected", "email", email)
		return nil, fmt.Errorf("invalid login code: %w", domain.ErrForbidden)
	}

	u, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("invalid login code: %w", domain.ErrForbidden)
	}

	var profile *user.Profile
	profileID := ""
	if p, err := s.users.GetProfileByUserID(u.ID); err == nil {
		profile = p
		profileID = p.ID
	}

	token, err := security.GenerateUserToken(u.ID, u.Email, profileID, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Auth().Info("User logged in with OTP", "userId", u.ID)
	return &AuthResult{Success: true, Token: token, User: u, Profile: profile}, nil
}

// VerifyOTP checks a code against the store and consumes it on success.
func (s *AuthService) VerifyOTP(email, code string) bool {
	key := strings.ToLower(email)
	stored, found := s.otpStore.Get(key)
	if !found || stored.(string) != code {
		return false
	}
	s.otpStore.Delete(key)
	return true
}

// ResolveOwnership verifies the caller owns the given profile, returning
// domain.ErrForbidden otherwise. Used by every dashboard read.
func (s *AuthService) ResolveOwnership(callerUserID, profileID string) (*user.Profile, error) {
	p, err := s.users.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerUserID {
		return nil, fmt.Errorf("profile %s not owned by caller: %w", profileID, domain.ErrForbidden)
	}
	return p, nil
}

// Users exposes the underlying repository for collaborating services.
func (s *AuthService) Users() *userrepo.SQLUserRepository { return s.users }
