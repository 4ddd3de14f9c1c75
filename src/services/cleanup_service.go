package services

import (
	"context"
	"time"

	"github.com/carebridge/carebridge-server/src/logging"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/rs/zerolog"
)

// CleanupService periodically clears expired password-reset tokens.
// Expired tokens already never match on consumption; the sweep keeps stale
// hashes from lingering in the store.
type CleanupService struct {
	users    repositories.UserRepository
	enabled  bool
	interval time.Duration
	done     chan struct{}
	logger   zerolog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(users repositories.UserRepository, enabled bool) *CleanupService {
	return &CleanupService{
		users:    users,
		enabled:  enabled,
		interval: 24 * time.Hour,
		done:     make(chan struct{}),
		logger:   logging.NewLogger("cleanup"),
	}
}

// Start runs the cleanup loop until Stop is called or the context is
// cancelled. Runs one sweep immediately.
func (cs *CleanupService) Start(ctx context.Context) {
	if !cs.enabled {
		cs.logger.Info().Msg("reset token cleanup disabled")
		return
	}

	cs.sweep(ctx)

	ticker := time.NewTicker(cs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.sweep(ctx)
		case <-cs.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the cleanup loop
func (cs *CleanupService) Stop() {
	close(cs.done)
}

func (cs *CleanupService) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cleared, err := cs.users.ClearExpiredResetTokens(ctx, time.Now())
	if err != nil {
		cs.logger.Error().Err(err).Msg("reset token cleanup failed")
		return
	}
	if cleared > 0 {
		cs.logger.Info().Int64("cleared", cleared).Msg("expired reset tokens cleared")
	}
}
