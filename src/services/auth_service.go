package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minUsernameLength = 3
	minPasswordLength = 8

	// loginFailedMessage is deliberately identical for unknown email and
	// wrong password so this path cannot be used to enumerate accounts
	loginFailedMessage = "Invalid email or password."

	deactivatedMessage = "This account has been deactivated."

	// resetRequestedMessage is returned whether or not the email matches an
	// account, to avoid the same enumeration oracle on the reset path
	resetRequestedMessage = "An email reset link has been sent."
)

// AuthService orchestrates registration, login, token refresh and the
// password-reset lifecycle
type AuthService struct {
	users        repositories.UserRepository
	tokens       *TokenService
	hasher       *PasswordHasher
	email        ResetEmailSender // nil when mail transport is unconfigured
	resetBaseURL string
}

// NewAuthService creates the auth service. A nil email sender switches the
// reset flow to logging the link instead of dispatching mail.
func NewAuthService(users repositories.UserRepository, tokens *TokenService, hasher *PasswordHasher, email ResetEmailSender, resetBaseURL string) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		hasher:       hasher,
		email:        email,
		resetBaseURL: strings.TrimRight(resetBaseURL, "/"),
	}
}

// AuthResult bundles the sanitized account view with a fresh token pair
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Register creates a new active User-role account and issues both tokens.
// The conflict message distinguishes which field is taken; that asymmetry
// with login is a deliberate usability trade-off.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if username == "" || email == "" || password == "" {
		return nil, ValidationError("Missing required fields.")
	}
	if len(username) < minUsernameLength {
		return nil, ValidationError(fmt.Sprintf("Username must be at least %d characters long.", minUsernameLength))
	}
	if !emailPattern.MatchString(email) {
		return nil, ValidationError("Please enter a valid email address.")
	}
	if len(password) < minPasswordLength {
		return nil, ValidationError(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	email = strings.ToLower(email)

	existing, err := s.users.GetByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		if existing.Email == email {
			return nil, ConflictError("This email is already taken.")
		}
		return nil, ConflictError("Username already taken.")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, InternalError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Concurrent registration can slip past the lookup; the unique
		// constraints are the real arbiter.
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ConflictError("This email is already taken.")
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return nil, ConflictError("Username already taken.")
		}
		return nil, InternalError(err)
	}

	return s.issueTokenPair(user)
}

// Login authenticates by email and password, stamps last_login and issues
// both tokens. Deactivation is revealed only after the password verifies.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ValidationError("Both email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, AuthenticationError(loginFailedMessage)
		}
		return nil, InternalError(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, AuthenticationError(loginFailedMessage)
	}

	if !user.IsActive {
		return nil, ForbiddenError(deactivatedMessage)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// A lost last_login stamp is not worth failing the login over
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last_login")
	} else {
		user.LastLogin = &now
	}

	return s.issueTokenPair(user)
}

// Refresh verifies a refresh token, re-checks the account and rotates the
// token pair. Old refresh tokens stay valid until natural expiry (stateless
// tokens, no revocation list).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, AuthenticationError("Refresh token required.")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return nil, AuthenticationError("Refresh token has expired.")
		case errors.Is(err, ErrTokenTypeMismatch):
			return nil, AuthenticationError("Invalid token type.")
		default:
			return nil, AuthenticationError("Invalid refresh token.")
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, AuthenticationError("Invalid refresh token.")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundError("User not found.")
		}
		return nil, InternalError(err)
	}
	if !user.IsActive {
		return nil, ForbiddenError(deactivatedMessage)
	}

	return s.issueTokenPair(user)
}

// RequestPasswordReset issues a single-use reset token and dispatches the
// reset link. For unknown emails it returns the same success-shaped message
// with no side effects.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ValidationError("Email is required.")
	}
	if !emailPattern.MatchString(email) {
		return "", ValidationError("Invalid email format.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return resetRequestedMessage, nil
		}
		return "", InternalError(err)
	}

	token, err := GenerateResetToken()
	if err != nil {
		return "", err
	}

	// Overwrites any outstanding token; the most recent request wins
	if err := s.users.SetResetToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		return "", InternalError(err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.resetBaseURL, token.Plaintext)
	if s.email == nil {
		// No mail transport configured; surface the link in the log so
		// development environments can complete the flow
		log.Warn().
			Str("email", user.Email).
			Str("reset_url", resetURL).
			Msg("mail transport not configured, logging password reset link")
		return resetRequestedMessage, nil
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, resetURL); err != nil {
		return "", InternalError(err)
	}
	return resetRequestedMessage, nil
}

// ResetPassword consumes a reset token and sets the new password. Invalid
// and expired tokens fail identically.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" || newPassword == "" {
		return "", ValidationError("Reset token and new password required.")
	}
	if len(newPassword) < minPasswordLength {
		return "", ValidationError(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}

	user, err := s.users.GetByResetTokenHash(ctx, HashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ResetTokenError()
		}
		return "", InternalError(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	// Clears the token pair and stamps last_password_change in one update
	if err := s.users.UpdatePassword(ctx, user.ID, hash, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ResetTokenError()
		}
		return "", InternalError(err)
	}

	return "Password successfully reset.", nil
}

// SeedAdmin creates an initial Admin account when the user store is empty.
// Intended for first-run bootstrap from environment configuration.
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, InternalError(err)
	}
	if count > 0 {
		return nil, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, InternalError(err)
	}
	return admin, nil
}

func (s *AuthService) issueTokenPair(user *models.User) (*AuthResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return nil, InternalError(err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, InternalError(err)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
