package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, role, is_active,
	last_login, last_password_change, password_reset_token, password_reset_expires,
	deleted_at, created_at, updated_at`

// PostgresUserRepository is the pgx-backed user store
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a user repository on the given pool
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.LastLogin, &u.LastPasswordChange, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.DeletedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// mapUniqueViolation translates the partial unique indexes on live accounts
// into the duplicate sentinels
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrDuplicateUsername
		}
	}
	return err
}

// Create inserts a new user row
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive, now)
	if err != nil {
		return fmt.Errorf("create user: %w", mapUniqueViolation(err))
	}
	return nil
}

// GetByID fetches a user by primary key
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a non-deleted user by lowercase-normalized email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1) AND deleted_at IS NULL`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetByEmailOrUsername fetches a non-deleted user matching either field.
// Email matches case-insensitively, username case-sensitively.
func (r *PostgresUserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE (email = lower($1) OR username = $2) AND deleted_at IS NULL
		LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, email, username))
}

// GetByResetTokenHash fetches the user holding an unexpired reset token.
// Expired tokens never match, so lazy expiry needs no sweep to be correct.
func (r *PostgresUserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > $2 AND deleted_at IS NULL`
	return scanUser(r.pool.QueryRow(ctx, query, tokenHash, now))
}

// List returns a page of active users plus the total count
func (r *PostgresUserRepository) List(ctx context.Context, page Page) ([]*models.User, int, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Count returns the number of non-deleted users
func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Update applies a partial update and returns the fresh row
func (r *PostgresUserRepository) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE(lower($3), email),
		    updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query, id, update.Username, update.Email, time.Now())
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, mapUniqueViolation(err)
	}
	return u, nil
}

// UpdateLastLogin stamps the login timestamp. Last writer wins; concurrent
// logins racing on this field is acceptable.
func (r *PostgresUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	return nil
}

// SetResetToken stores the reset-token hash and expiry, overwriting any
// outstanding token (most recent token wins)
func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, id, tokenHash, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword stores the new hash, clears the reset-token pair and
// stamps last_password_change in a single statement
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_reset_token = NULL,
		    password_reset_expires = NULL,
		    last_password_change = $3,
		    updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete deactivates a user and stamps deleted_at, returning the row
func (r *PostgresUserRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (*models.User, error) {
	query := `
		UPDATE users
		SET is_active = false, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, at))
}

// ClearExpiredResetTokens nulls out reset-token pairs past their expiry
func (r *PostgresUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE password_reset_expires IS NOT NULL AND password_reset_expires <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
