package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName          = errors.New("user name cannot be empty")
	ErrInvalidPhoneNumber = errors.New("phone number cannot be empty")
	ErrUnknownRole        = errors.New("unknown user role")
)

// Role defines the account-holder categories that govern which money
// movements a user may participate in
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleAgent  Role = "AGENT"
	RoleClient Role = "CLIENT"
	RoleVendor Role = "VENDOR"
)

// ParseRole converts a string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleClient, RoleVendor:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// User represents an account holder identified by phone number
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser creates a new user with the given identity attributes
func NewUser(name, phoneNumber, email string, role Role) (*User, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if phoneNumber == "" {
		return nil, ErrInvalidPhoneNumber
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		ID:          uuid.New(),
		Name:        name,
		PhoneNumber: phoneNumber,
		Email:       email,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
