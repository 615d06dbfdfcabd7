package auth

import (
	"errors"
	"time"
)

// Role is the access level attached to a user account.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// SecurityContext is the authenticated user attached to a request.
// Password hashes never leave the database layer.
type SecurityContext struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Login     string    `json:"login"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL *string   `json:"avatarUrl"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (sc *SecurityContext) IsAdmin() bool {
	return sc != nil && sc.Role == RoleAdmin
}

// ValidationError marks rejected user input as opposed to an internal
// failure, so handlers can answer 400 instead of 500.
type ValidationError struct {
	msg string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.msg
}

var (
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser is returned when phone, email or login is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrResetTokenInvalid is returned when a reset token is unknown or expired.
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)
