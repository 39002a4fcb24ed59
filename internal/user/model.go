package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed    = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials  = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser        = apperror.New(http.StatusUnauthorized, "user is inactive")
	ErrEmailRequired       = apperror.New(http.StatusBadRequest, "email is required")
	ErrPasswordTooShort    = apperror.New(http.StatusBadRequest, "password must be at least 8 characters")
	ErrDisplayNameRequired = apperror.New(http.StatusBadRequest, "display name is required")
	ErrNationalIDRequired  = apperror.New(http.StatusBadRequest, "national id is required")
)

// User represents an account. DisplayName and NationalID are copied onto
// every reservation the user makes.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  string
	NationalID   string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
