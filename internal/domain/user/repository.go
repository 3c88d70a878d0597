package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository resolves phone numbers and IDs to users. It is the identity
// side of the ledger: every participant in a money movement is looked up
// here before any balance is touched.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrUserNotFound indicates that no user matches the given phone number or ID
type ErrUserNotFound struct {
	PhoneNumber string
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + e.PhoneNumber
}

// Is matches any ErrUserNotFound when the target carries no phone number
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	if t.PhoneNumber == "" {
		return true
	}
	return e.PhoneNumber == t.PhoneNumber
}

// ErrDuplicatePhoneNumber indicates phone number uniqueness violation
type ErrDuplicatePhoneNumber struct {
	PhoneNumber string
}

func (e ErrDuplicatePhoneNumber) Error() string {
	return "user with phone number already exists: " + e.PhoneNumber
}

// Is matches any ErrDuplicatePhoneNumber when the target carries no phone number
func (e ErrDuplicatePhoneNumber) Is(target error) bool {
	t, ok := target.(ErrDuplicatePhoneNumber)
	if !ok {
		return false
	}
	if t.PhoneNumber == "" {
		return true
	}
	return e.PhoneNumber == t.PhoneNumber
}
