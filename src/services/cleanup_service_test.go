package services

import (
	"context"
	"testing"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_SweepClearsOnlyExpired(t *testing.T) {
	store := mock.NewUserRepository()

	expiredHash := "expired-hash"
	expiredAt := time.Now().Add(-time.Minute)
	liveHash := "live-hash"
	liveAt := time.Now().Add(30 * time.Minute)

	expired := &models.User{ID: uuid.New(), Username: "expired", Email: "expired@example.com",
		PasswordHash: "x", Role: models.RoleUser, IsActive: true,
		PasswordResetToken: &expiredHash, PasswordResetExpires: &expiredAt}
	live := &models.User{ID: uuid.New(), Username: "live", Email: "live@example.com",
		PasswordHash: "x", Role: models.RoleUser, IsActive: true,
		PasswordResetToken: &liveHash, PasswordResetExpires: &liveAt}
	store.Seed(expired)
	store.Seed(live)

	cs := NewCleanupService(store, true)
	cs.sweep(context.Background())

	u, _ := store.Get(expired.ID)
	assert.Nil(t, u.PasswordResetToken)

	u, _ = store.Get(live.ID)
	require.NotNil(t, u.PasswordResetToken)
	assert.Equal(t, liveHash, *u.PasswordResetToken)
}

func TestCleanupService_DisabledStartReturns(t *testing.T) {
	cs := NewCleanupService(mock.NewUserRepository(), false)

	done := make(chan struct{})
	go func() {
		cs.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled cleanup service did not return immediately")
	}
}
