package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListFilter narrows a paginated transaction listing. Since is the inclusive
// lower bound on CreatedAt; the zero value means no time constraint. UserID
// matches either side of the movement.
type ListFilter struct {
	Page   int
	Limit  int
	Since  time.Time
	UserID *uuid.UUID
}

// Offset returns the pagination start for the filter
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Repository manages transaction persistence with pagination support
type Repository interface {
	// Create persists a transaction and, when present, its credit-purchase
	// details in the same atomic unit.
	Create(ctx context.Context, txn *Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByTransferID returns both legs of a transfer, SEND first
	GetByTransferID(ctx context.Context, transferID uuid.UUID) ([]*Transaction, error)

	// UpdateStatus transitions a PENDING transaction to the given status.
	// Terminal statuses are immutable: the update is conditioned on the row
	// still being PENDING and returns ErrStatusFinal otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// List returns one page of transactions matching the filter, newest
	// first, together with the total count across all pages.
	List(ctx context.Context, filter ListFilter) ([]*Transaction, int64, error)

	// ListStalePending returns PENDING transactions created before olderThan,
	// oldest first, for reconciliation.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
