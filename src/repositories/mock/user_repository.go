package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/google/uuid"
)

// UserRepository is an in-memory implementation of repositories.UserRepository
// for tests. Individual operations can be overridden via the *Func stubs to
// inject failures.
type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User

	CreateFunc     func(ctx context.Context, user *models.User) error
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*models.User)}
}

// Seed inserts a user directly, bypassing uniqueness checks
func (m *UserRepository) Seed(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

// Get returns a copy of the stored user for inspection in tests
func (m *UserRepository) Get(id uuid.UUID) (*models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DeletedAt != nil {
			continue
		}
		if u.Email == strings.ToLower(user.Email) {
			return repositories.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repositories.ErrDuplicateUsername
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	cp.Email = strings.ToLower(cp.Email)
	m.users[user.ID] = &cp
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DeletedAt == nil && u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DeletedAt != nil {
			continue
		}
		if u.Email == strings.ToLower(email) || u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DeletedAt != nil {
			continue
		}
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) List(ctx context.Context, page repositories.Page) ([]*models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.User
	for _, u := range m.users {
		if u.DeletedAt == nil {
			cp := *u
			all = append(all, &cp)
		}
	}
	total := len(all)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *UserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.users {
		if u.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *UserRepository) Update(ctx context.Context, id uuid.UUID, update repositories.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, repositories.ErrNotFound
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = strings.ToLower(*update.Email)
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return repositories.ErrNotFound
	}
	u.PasswordResetToken = &tokenHash
	u.PasswordResetExpires = &expiresAt
	return nil
}

func (m *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return repositories.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	u.LastPasswordChange = &changedAt
	u.UpdatedAt = changedAt
	return nil
}

func (m *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, repositories.ErrNotFound
	}
	u.IsActive = false
	u.DeletedAt = &at
	u.UpdatedAt = at
	cp := *u
	return &cp, nil
}

func (m *UserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cleared int64
	for _, u := range m.users {
		if u.PasswordResetExpires != nil && !u.PasswordResetExpires.After(now) {
			u.PasswordResetToken = nil
			u.PasswordResetExpires = nil
			cleared++
		}
	}
	return cleared, nil
}

// Ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)
