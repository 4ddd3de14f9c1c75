package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestTokens(t *testing.T, cfg services.TokenServiceConfig) *services.TokenService {
	t.Helper()
	if cfg.AccessSecret == "" {
		cfg.AccessSecret = "middleware-test-secret-32-characters!"
	}
	ts, err := services.NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return ts
}

func newAuthTestRouter(tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireAuth(tokens), func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "role": identity.Role})
	})
	return router
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{})
	router := newAuthTestRouter(tokens)

	userID := uuid.New().String()
	token, err := tokens.IssueAccessToken(userID, "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{})
	router := newAuthTestRouter(tokens)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bare token", "some-token-without-scheme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{})
	router := newAuthTestRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid_token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{AccessTTL: -time.Minute})
	router := newAuthTestRouter(tokens)

	token, err := tokens.IssueAccessToken(uuid.New().String(), "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "expired") {
		t.Errorf("expected expiry message in body, got %s", body)
	}
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	// Shared-secret configuration: the refresh token's signature verifies,
	// so rejection has to come from the claim checks
	tokens := newTestTokens(t, services.TokenServiceConfig{})
	router := newAuthTestRouter(tokens)

	refresh, err := tokens.IssueRefreshToken(uuid.New().String())
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for refresh token on protected route, got %d", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin-only", RequireAuth(tokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	adminToken, err := tokens.IssueAccessToken(uuid.New().String(), "root", models.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	userToken, err := tokens.IssueAccessToken(uuid.New().String(), "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin: expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("user: expected status 403, got %d", w.Code)
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	tokens := newTestTokens(t, services.TokenServiceConfig{})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PATCH("/user/:id/delete", RequireAuth(tokens), RequireOwnerOrAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ownerID := uuid.New().String()
	otherID := uuid.New().String()

	ownerToken, err := tokens.IssueAccessToken(ownerID, "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	adminToken, err := tokens.IssueAccessToken(uuid.New().String(), "root", models.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	cases := []struct {
		name     string
		targetID string
		token    string
		want     int
	}{
		{"owner on own resource", ownerID, ownerToken, http.StatusOK},
		{"owner on someone else", otherID, ownerToken, http.StatusForbidden},
		{"admin on anyone", otherID, adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/user/"+tc.targetID+"/delete", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("expected status %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
