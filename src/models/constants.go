package models

// Role represents a user's authorization role
type Role string

const (
	// RoleAdmin grants access to every resource and user-management routes
	RoleAdmin Role = "Admin"
	// RoleUser is the default role assigned on registration
	RoleUser Role = "User"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ShiftStatus represents the lifecycle state of a care shift
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "scheduled"
	ShiftStatusCompleted ShiftStatus = "completed"
	ShiftStatusCancelled ShiftStatus = "cancelled"
)

// Valid reports whether the status is one of the known values
func (s ShiftStatus) Valid() bool {
	return s == ShiftStatusScheduled || s == ShiftStatusCompleted || s == ShiftStatusCancelled
}
