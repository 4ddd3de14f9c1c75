package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/carebridge/carebridge-server/src/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication and credential-lifecycle requests
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignupRequest is the registration payload
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest is the login payload
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token presented for rotation
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ResetRequestRequest carries the email asking for a reset link
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the emailed token and the new password
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandleSignup handles POST /auth/signup
func (h *AuthHandler) HandleSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	// Registration hashes at full cost; allow for that plus the store write
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.auth.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"user":         result.User,
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// HandleSignin handles POST /auth/signin
func (h *AuthHandler) HandleSignin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         result.User,
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// HandleRefreshToken handles POST /auth/refresh-token
func (h *AuthHandler) HandleRefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// HandleRequestPasswordReset handles POST /auth/request-password-reset
func (h *AuthHandler) HandleRequestPasswordReset(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	// Mail dispatch sits inside this window
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	message, err := h.auth.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// HandleResetPassword handles POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	message, err := h.auth.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}
