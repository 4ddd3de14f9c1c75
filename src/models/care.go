package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient represents a person receiving care
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	CareNotes   string     `json:"careNotes,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Shift represents a scheduled caregiving shift
type Shift struct {
	ID          uuid.UUID   `json:"id"`
	PatientID   uuid.UUID   `json:"patientId"`
	CaregiverID uuid.UUID   `json:"caregiverId"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     time.Time   `json:"endTime"`
	Status      ShiftStatus `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Medication represents a prescribed medication for a patient
type Medication struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patientId"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Schedule     string    `json:"schedule"`
	Instructions string    `json:"instructions,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HandoverNote represents a shift-change note written by a caregiver
type HandoverNote struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patientId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
