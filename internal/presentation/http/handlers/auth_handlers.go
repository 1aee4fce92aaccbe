package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/email"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
)

// AuthHandlers contains the signup/login/token HTTP handlers.
type AuthHandlers struct {
	authService *services.AuthService
	mailer      *email.Client
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies.
func NewAuthHandlers(authService *services.AuthService, mailer *email.Client, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{authService: authService, mailer: mailer, logger: logger}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	result, err := h.authService.Signup(req.Email, req.Name, req.Password, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RequestOTP handles POST /api/v1/auth/otp. The code is only ever delivered
// by email, never echoed in the response.
func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email is required"})
		return
	}

	code, err := h.authService.IssueOTP(req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.mailer.SendLoginCode(req.Email, code); err != nil {
		h.logger.Auth().Warn("Login code email failed", "error", err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// VerifyOTP handles POST /api/v1/auth/otp/verify.
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	result, err := h.authService.LoginWithOTP(req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Decode handles GET /api/v1/auth/decode. Clients use it to check whether a
// stored token is still valid.
func (h *AuthHandlers) Decode(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "bearer token required"})
		return
	}

	claims, err := h.authService.Decode(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"profile_id": claims.ProfileID,
	})
}
