package services

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/google/uuid"
)

// UserService handles user directory operations: listing, partial updates
// and soft deletion. Credential changes go through AuthService only.
type UserService struct {
	users repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// UserPage is a paginated slice of users
type UserPage struct {
	Users []*models.User
	Total int
	Page  int
	Limit int
}

// List returns a page of active users
func (s *UserService) List(ctx context.Context, page repositories.Page) (*UserPage, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, InternalError(err)
	}
	return &UserPage{Users: users, Total: total, Page: page.Number, Limit: page.Limit}, nil
}

// Get fetches a single user by id
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundError("User not found.")
		}
		return nil, InternalError(err)
	}
	return user, nil
}

// Update applies a partial update. Role and password are not part of
// UserUpdate, so the self-service path cannot escalate or overwrite them.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, update repositories.UserUpdate) (*models.User, error) {
	if update.Email != nil && !emailPattern.MatchString(*update.Email) {
		return nil, ValidationError("Please enter a valid email address.")
	}
	if update.Username != nil && len(*update.Username) < minUsernameLength {
		return nil, ValidationError("Username must be at least 3 characters long.")
	}

	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, NotFoundError("User not found.")
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ConflictError("This email is already taken.")
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return nil, ConflictError("Username already taken.")
		}
		return nil, InternalError(err)
	}
	return user, nil
}

// SoftDelete deactivates a user and stamps deleted_at. Already-deleted
// users surface as not found.
func (s *UserService) SoftDelete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.SoftDelete(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundError("No user found to delete.")
		}
		return nil, InternalError(err)
	}
	return user, nil
}
