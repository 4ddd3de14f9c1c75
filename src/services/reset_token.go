package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL is how long a password-reset token stays valid
const ResetTokenTTL = time.Hour

// ResetToken is a freshly issued password-reset token. Plaintext goes into
// the email link; only Hash and ExpiresAt are ever persisted.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// GenerateResetToken creates a 32-byte random token, hex-encoded for
// transport and SHA-256-hashed for storage
func GenerateResetToken() (*ResetToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, InternalError(fmt.Errorf("generate reset token: %w", err))
	}
	plaintext := hex.EncodeToString(buf)
	return &ResetToken{
		Plaintext: plaintext,
		Hash:      HashResetToken(plaintext),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}, nil
}

// HashResetToken returns the hex-encoded SHA-256 digest of a plaintext
// reset token, the only form that touches the database
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
