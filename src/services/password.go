package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used unless config overrides it.
// The floor is bcrypt.DefaultCost; anything lower is rejected at construction.
const DefaultBcryptCost = 12

// PasswordHasher wraps bcrypt with a configured work factor
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given cost. Costs below
// bcrypt.DefaultCost or above bcrypt.MaxCost are rejected.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.DefaultCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.DefaultCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash computes a salted one-way hash of the password
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ValidationError("Password is required.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", InternalError(fmt.Errorf("hash password: %w", err))
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash.
// Empty arguments are an error, never a silent false.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, ValidationError("Password and hash are required for comparison.")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case err == bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, InternalError(fmt.Errorf("compare password: %w", err))
	}
}
