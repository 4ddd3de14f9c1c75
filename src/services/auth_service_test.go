package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/carebridge/carebridge-server/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeEmailSender records reset emails instead of dispatching them
type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to       string
	resetURL string
}

func (f *fakeEmailSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: toEmail, resetURL: resetURL})
	return nil
}

type authFixture struct {
	svc   *AuthService
	store *mock.UserRepository
	email *fakeEmailSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := mock.NewUserRepository()
	tokens := newTestTokenService(t, TokenServiceConfig{RefreshSecret: testRefreshSecret})
	hasher := &PasswordHasher{cost: bcrypt.MinCost}
	email := &fakeEmailSender{}
	return &authFixture{
		svc:   NewAuthService(store, tokens, hasher, email, "https://care.example.com"),
		store: store,
		email: email,
	}
}

func (f *authFixture) seedUser(t *testing.T, username, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     active,
	}
	f.store.Seed(u)
	return u
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), "alice", "Alice@Example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice@example.com", result.User.Email, "email is lowercase-normalized")
	assert.Equal(t, models.RoleUser, result.User.Role, "self-service registration never grants Admin")
	assert.True(t, result.User.IsActive)
	assert.NotEqual(t, "password123", result.User.PasswordHash)

	// Both tokens must verify against the issuing service
	claims, err := f.svc.tokens.VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.UserID)

	refreshClaims, err := f.svc.tokens.VerifyRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), refreshClaims.UserID)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		message  string
	}{
		{"missing fields", "", "", "", "Missing required fields."},
		{"short username", "al", "alice@example.com", "password123", "Username must be at least 3 characters long."},
		{"bad email", "alice", "not-an-email", "password123", "Please enter a valid email address."},
		{"short password", "alice", "alice@example.com", "short", "Password must be at least 8 characters."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.username, tc.email, tc.password)
			require.Error(t, err)
			se, ok := AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, se.Status)
			assert.Equal(t, tc.message, se.Message)
		})
	}
}

func TestRegister_ConflictMessages(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "alice@example.com", "password123", true)

	_, err := f.svc.Register(ctx, "someone-else", "alice@example.com", "password123")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "This email is already taken.", se.Message)

	_, err = f.svc.Register(ctx, "alice", "fresh@example.com", "password123")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "Username already taken.", se.Message)
}

func TestRegister_ConcurrentDuplicateLosesCleanly(t *testing.T) {
	// A racing registration can pass the lookup and still lose at the
	// unique constraint; that path must produce the same conflict response
	f := newAuthFixture(t)
	f.store.CreateFunc = func(ctx context.Context, user *models.User) error {
		return repositories.ErrDuplicateEmail
	}

	_, err := f.svc.Register(context.Background(), "bob", "bob@example.com", "password123")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "This email is already taken.", se.Message)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)

	result, err := f.svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	stored, ok := f.store.Get(u.ID)
	require.True(t, ok)
	assert.NotNil(t, stored.LastLogin, "login stamps last_login")
}

func TestLogin_IdenticalFailureSignal(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alice", "alice@example.com", "password123", true)
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, "nobody@example.com", "password123")
	_, wrongErr := f.svc.Login(ctx, "alice@example.com", "wrong-password")

	unknown, ok := AsServiceError(unknownErr)
	require.True(t, ok)
	wrong, ok := AsServiceError(wrongErr)
	require.True(t, ok)

	// Unknown email and wrong password must be indistinguishable
	assert.Equal(t, http.StatusUnauthorized, unknown.Status)
	assert.Equal(t, unknown.Status, wrong.Status)
	assert.Equal(t, unknown.Message, wrong.Message)
	assert.Equal(t, "Invalid email or password.", wrong.Message)
}

func TestLogin_DeactivatedRevealedOnlyWithValidPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alice", "alice@example.com", "password123", false)
	ctx := context.Background()

	// Correct password against a deactivated account gets the 403
	_, err := f.svc.Login(ctx, "alice@example.com", "password123")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Equal(t, "This account has been deactivated.", se.Message)

	// Wrong password must not leak that the account is deactivated
	_, err = f.svc.Login(ctx, "alice@example.com", "wrong-password")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "Invalid email or password.", se.Message)
}

func TestRefresh_RotatesPair(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)

	refresh, err := f.svc.tokens.IssueRefreshToken(u.ID.String())
	require.NoError(t, err)

	result, err := f.svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)

	access, err := f.svc.tokens.IssueAccessToken(u.ID.String(), u.Username, u.Role)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), access)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)

	expired := newTestTokenService(t, TokenServiceConfig{
		RefreshSecret: testRefreshSecret,
		RefreshTTL:    -time.Minute,
	})
	token, err := expired.IssueRefreshToken(u.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "Refresh token has expired.", se.Message)
}

func TestRefresh_UserGoneOrDeactivated(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Token for a user that no longer exists
	ghost, err := f.svc.tokens.IssueRefreshToken(uuid.New().String())
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, ghost)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "User not found.", se.Message)

	// Deactivated between issuance and refresh
	u := f.seedUser(t, "alice", "alice@example.com", "password123", false)
	token, err := f.svc.tokens.IssueRefreshToken(u.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, token)
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, se.Status)
}

func TestRequestPasswordReset_KnownEmail(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)

	message, err := f.svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "An email reset link has been sent.", message)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "alice@example.com", f.email.sent[0].to)
	assert.True(t, strings.HasPrefix(f.email.sent[0].resetURL, "https://care.example.com/reset-password?token="))

	stored, ok := f.store.Get(u.ID)
	require.True(t, ok)
	require.NotNil(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.NotContains(t, f.email.sent[0].resetURL, *stored.PasswordResetToken,
		"the emailed link carries the plaintext, never the stored hash")
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	message, err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "An email reset link has been sent.", message,
		"unknown emails get the same success-shaped response")
	assert.Empty(t, f.email.sent, "no mail is dispatched for unknown emails")
}

func TestRequestPasswordReset_InvalidFormat(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RequestPasswordReset(context.Background(), "not-an-email")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "Invalid email format.", se.Message)
}

func TestRequestPasswordReset_SecondRequestOverwrites(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "password123", true)
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	first, _ := f.store.Get(u.ID)

	_, err = f.svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	second, _ := f.store.Get(u.ID)

	assert.NotEqual(t, *first.PasswordResetToken, *second.PasswordResetToken,
		"the most recent token wins")
}

func TestRequestPasswordReset_MailFailurePropagates(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alice", "alice@example.com", "password123", true)
	f.email.err = fmt.Errorf("mailgun: 502")

	_, err := f.svc.RequestPasswordReset(context.Background(), "alice@example.com")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestRequestPasswordReset_NilSenderLogsLink(t *testing.T) {
	store := mock.NewUserRepository()
	tokens := newTestTokenService(t, TokenServiceConfig{})
	hasher := &PasswordHasher{cost: bcrypt.MinCost}
	svc := NewAuthService(store, tokens, hasher, nil, "http://localhost:8080")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID: uuid.New(), Username: "alice", Email: "alice@example.com",
		PasswordHash: string(hash), Role: models.RoleUser, IsActive: true,
	}
	store.Seed(u)

	message, err := svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "An email reset link has been sent.", message)

	stored, _ := store.Get(u.ID)
	assert.NotNil(t, stored.PasswordResetToken, "the token is still issued without a mail transport")
}

// requestAndCaptureToken runs the reset-request flow and extracts the
// plaintext token from the emailed link
func (f *authFixture) requestAndCaptureToken(t *testing.T, email string) string {
	t.Helper()
	_, err := f.svc.RequestPasswordReset(context.Background(), email)
	require.NoError(t, err)
	require.NotEmpty(t, f.email.sent)

	parsed, err := url.Parse(f.email.sent[len(f.email.sent)-1].resetURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestResetPassword_FullFlow(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "old-password", true)
	ctx := context.Background()

	token := f.requestAndCaptureToken(t, "alice@example.com")

	message, err := f.svc.ResetPassword(ctx, token, "new-password-123")
	require.NoError(t, err)
	assert.Equal(t, "Password successfully reset.", message)

	stored, _ := f.store.Get(u.ID)
	assert.Nil(t, stored.PasswordResetToken, "consumed token is cleared")
	assert.Nil(t, stored.PasswordResetExpires)
	assert.NotNil(t, stored.LastPasswordChange)

	// Old password out, new password in
	_, err = f.svc.Login(ctx, "alice@example.com", "old-password")
	assert.Error(t, err)
	_, err = f.svc.Login(ctx, "alice@example.com", "new-password-123")
	assert.NoError(t, err)
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "alice", "alice@example.com", "old-password", true)
	ctx := context.Background()

	token := f.requestAndCaptureToken(t, "alice@example.com")

	_, err := f.svc.ResetPassword(ctx, token, "new-password-123")
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, token, "another-password-456")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, "Invalid or expired reset token.", se.Message)
}

func TestResetPassword_InvalidAndExpiredIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seedUser(t, "alice", "alice@example.com", "old-password", true)
	ctx := context.Background()

	_, garbageErr := f.svc.ResetPassword(ctx, "completely-made-up", "new-password-123")

	token := f.requestAndCaptureToken(t, "alice@example.com")
	expiry := time.Now().Add(-time.Minute)
	stored, _ := f.store.Get(u.ID)
	require.NoError(t, f.store.SetResetToken(ctx, u.ID, *stored.PasswordResetToken, expiry))
	_, expiredErr := f.svc.ResetPassword(ctx, token, "new-password-123")

	garbage, ok := AsServiceError(garbageErr)
	require.True(t, ok)
	expired, ok := AsServiceError(expiredErr)
	require.True(t, ok)
	assert.Equal(t, garbage.Message, expired.Message)
	assert.Equal(t, garbage.Status, expired.Status)
}

func TestResetPassword_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResetPassword(ctx, "", "new-password-123")
	assert.Error(t, err)

	_, err = f.svc.ResetPassword(ctx, "some-token", "short")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "Password must be at least 8 characters.", se.Message)
}

func TestSeedAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	admin, err := f.svc.SeedAdmin(ctx, "root", "Root@Example.com", "bootstrap-password")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "root@example.com", admin.Email)

	// Second run is a no-op once any user exists
	again, err := f.svc.SeedAdmin(ctx, "root2", "root2@example.com", "bootstrap-password")
	require.NoError(t, err)
	assert.Nil(t, again)
}
