package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrUnknownTimeFrame = errors.New("unknown time frame")
)

// Type defines the supported money movements
type Type string

const (
	TypeDeposit  Type = "DEPOSIT"
	TypeWithdraw Type = "WITHDRAW"
	TypeSend     Type = "SEND"
	TypeReceive  Type = "RECEIVE"
	TypePurchase Type = "PURCHASE"
)

// ParseType converts a string to a Type, rejecting unknown values
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeDeposit, TypeWithdraw, TypeSend, TypeReceive, TypePurchase:
		return Type(s), nil
	default:
		return "", ErrInvalidType
	}
}

// Status defines the transaction lifecycle states. A transaction is created
// PENDING and transitions exactly once to a terminal status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ErrStatusFinal indicates an attempted transition out of a terminal status
type ErrStatusFinal struct {
	TransactionID uuid.UUID
	Status        Status
}

func (e ErrStatusFinal) Error() string {
	return "transaction " + e.TransactionID.String() + " is already in terminal status " + string(e.Status)
}

// Is matches any ErrStatusFinal when the target carries a nil ID
func (e ErrStatusFinal) Is(target error) bool {
	t, ok := target.(ErrStatusFinal)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// CreditPurchaseDetails is the off-ledger contact attached to a PURCHASE
// transaction. At least one contact channel is required; validation enforces
// this before the engine runs.
type CreditPurchaseDetails struct {
	TransactionID       uuid.UUID `json:"transaction_id"`
	ReceiverName        string    `json:"receiver_name,omitempty"`
	ReceiverPhoneNumber string    `json:"receiver_phone_number,omitempty"`
	ReceiverEmail       string    `json:"receiver_email,omitempty"`
}

// Transaction represents one money movement. A peer transfer is two rows
// (one SEND, one RECEIVE) correlated by TransferID; the Amount field is
// recorded net of fee, with the fee kept separately.
type Transaction struct {
	ID         uuid.UUID              `json:"id"`
	TransferID *uuid.UUID             `json:"transfer_id,omitempty"`
	SenderID   *uuid.UUID             `json:"sender_id,omitempty"`
	ReceiverID *uuid.UUID             `json:"receiver_id,omitempty"`
	Amount     decimal.Decimal        `json:"amount"` // net of fee
	FeeAmount  decimal.Decimal        `json:"fee_amount"`
	Currency   string                 `json:"currency"`
	Type       Type                   `json:"type"`
	Status     Status                 `json:"status"`
	Purchase   *CreditPurchaseDetails `json:"purchase,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// TimeFrame is a relative date-range constraint for transaction listings
type TimeFrame string

const (
	TimeFrameNone  TimeFrame = ""
	TimeFrameDay   TimeFrame = "day"
	TimeFrameWeek  TimeFrame = "week"
	TimeFrameMonth TimeFrame = "month"
)

// ParseTimeFrame converts a string to a TimeFrame; empty means no constraint
func ParseTimeFrame(s string) (TimeFrame, error) {
	switch TimeFrame(s) {
	case TimeFrameNone, TimeFrameDay, TimeFrameWeek, TimeFrameMonth:
		return TimeFrame(s), nil
	default:
		return "", ErrUnknownTimeFrame
	}
}

// Since computes the inclusive lower bound of the window relative to now.
// Day means today (from midnight), week a trailing 6-day window, month a
// trailing 1-month window. The second return is false for TimeFrameNone.
func (tf TimeFrame) Since(now time.Time) (time.Time, bool) {
	switch tf {
	case TimeFrameDay:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case TimeFrameWeek:
		return now.AddDate(0, 0, -6), true
	case TimeFrameMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
