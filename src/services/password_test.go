package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	// MinCost keeps the test fast; production uses the configured cost
	hasher := &PasswordHasher{cost: bcrypt.MinCost}

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "correct horse", "hash must not embed the plaintext")
	assert.True(t, strings.HasPrefix(hash, "$2"), "expected a bcrypt hash, got %q", hash)

	ok, err := hasher.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong password", hash)
	require.NoError(t, err, "a mismatch is not an error")
	assert.False(t, ok)
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := &PasswordHasher{cost: bcrypt.MinCost}

	first, err := hasher.Hash("samepassword")
	require.NoError(t, err)
	second, err := hasher.Hash("samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each hash must carry a fresh salt")
}

func TestPasswordHasher_EmptyInputs(t *testing.T) {
	hasher := &PasswordHasher{cost: bcrypt.MinCost}

	_, err := hasher.Hash("")
	require.Error(t, err)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, se.Kind)

	_, err = hasher.Verify("", "some-hash")
	require.Error(t, err)

	_, err = hasher.Verify("password", "")
	require.Error(t, err)
}

func TestNewPasswordHasher_CostBounds(t *testing.T) {
	h, err := NewPasswordHasher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	_, err = NewPasswordHasher(bcrypt.DefaultCost - 1)
	assert.Error(t, err, "costs below the floor weaken stored credentials")

	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
