package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Access tokens are short-lived; refresh tokens are only
// good for minting new pairs.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeRefresh = "refresh"
)

// Sentinel token errors, distinguished so the middleware and auth service
// can map them to precise responses
var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenTypeMismatch = errors.New("unexpected token type")
)

// AccessClaims is the claim set embedded in access tokens
type AccessClaims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set embedded in refresh tokens. TokenType
// guards against presenting an access token where a refresh token is
// required, and vice versa.
type RefreshClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenServiceConfig holds signing configuration injected at construction
type TokenServiceConfig struct {
	AccessSecret  string
	RefreshSecret string // optional; falls back to AccessSecret
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService signs and verifies access and refresh tokens
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenService creates a token service. The access secret is mandatory.
// When no refresh secret is configured the access secret is reused; callers
// are expected to warn loudly about that fallback at startup.
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("access token secret cannot be empty")
	}
	if len(cfg.AccessSecret) < 32 {
		return nil, fmt.Errorf("access token secret must be at least 32 characters long")
	}
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.AccessSecret
	}
	accessTTL := cfg.AccessTTL
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "carebridge"
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// UsesSharedSecret reports whether refresh tokens are signed with the
// access-token secret (the deployment-convenience fallback)
func (ts *TokenService) UsesSharedSecret() bool {
	return string(ts.accessSecret) == string(ts.refreshSecret)
}

// IssueAccessToken signs a short-lived access token. All three inputs are
// mandatory; omitting the role must not silently issue an under-scoped token.
func (ts *TokenService) IssueAccessToken(userID, username string, role models.Role) (string, error) {
	if userID == "" || username == "" || role == "" {
		return "", ValidationError("User ID, username and role are required to issue a token.")
	}
	now := time.Now()
	claims := AccessClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ts.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.accessSecret)
}

// IssueRefreshToken signs a longer-lived refresh token carrying only the
// user ID and an explicit type claim
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", ValidationError("User ID is required to issue a refresh token.")
	}
	now := time.Now()
	claims := RefreshClaims{
		UserID:    userID,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ts.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.refreshSecret)
}

// VerifyAccessToken parses and validates an access token. A refresh token
// presented here fails with ErrTokenTypeMismatch.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(tokenString, claims, ts.accessSecret); err != nil {
		return nil, err
	}
	// A refresh token signed with a shared secret would otherwise parse
	// cleanly into AccessClaims with an empty username.
	if claims.Username == "" || claims.Role == "" {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token, checking the
// embedded type claim
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(tokenString, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}

func (ts *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
