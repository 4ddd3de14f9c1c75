package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/google/uuid"
)

// Sentinel errors for explicit error handling with errors.Is()
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail indicates the email is already taken by a live account
	ErrDuplicateEmail = errors.New("email already taken")

	// ErrDuplicateUsername indicates the username is already taken by a live account
	ErrDuplicateUsername = errors.New("username already taken")
)

// Page holds pagination parameters for list queries
type Page struct {
	Number int
	Limit  int
}

// Offset returns the row offset for the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// UserUpdate holds the user fields mutable through the update path.
// Role and password are deliberately absent; they change through
// dedicated operations only.
type UserUpdate struct {
	Username *string
	Email    *string
}

// UserRepository defines the interface for user credential-store access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	List(ctx context.Context, page Page) ([]*models.User, int, error)
	Count(ctx context.Context) (int, error)

	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (*models.User, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// PatientRepository defines the interface for patient record access
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	List(ctx context.Context, page Page) ([]*models.Patient, int, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ShiftRepository defines the interface for shift schedule access
type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	List(ctx context.Context, page Page) ([]*models.Shift, int, error)
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MedicationRepository defines the interface for medication record access
type MedicationRepository interface {
	Create(ctx context.Context, medication *models.Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, page Page) ([]*models.Medication, int, error)
	Update(ctx context.Context, medication *models.Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// HandoverNoteRepository defines the interface for handover note access
type HandoverNoteRepository interface {
	Create(ctx context.Context, note *models.HandoverNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.HandoverNote, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, page Page) ([]*models.HandoverNote, int, error)
	Update(ctx context.Context, note *models.HandoverNote) error
	Delete(ctx context.Context, id uuid.UUID) error
}
