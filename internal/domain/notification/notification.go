package notification

import (
	"time"

	"github.com/google/uuid"
)

// Status defines notification read states
type Status string

const (
	StatusUnread Status = "UNREAD"
	StatusRead   Status = "READ"
)

// Kind distinguishes user-facing notifications from reconciliation flags
// raised for operators
type Kind string

const (
	KindTransaction    Kind = "TRANSACTION"
	KindReconciliation Kind = "RECONCILIATION"
)

// Notification is a message delivered to a user about a movement on their
// account, or to operations about a transaction needing review
type Notification struct {
	ID            uuid.UUID `json:"id" bson:"id"`
	UserID        uuid.UUID `json:"user_id" bson:"user_id"`
	TransactionID uuid.UUID `json:"transaction_id" bson:"transaction_id"`
	Kind          Kind      `json:"kind" bson:"kind"`
	Message       string    `json:"message" bson:"message"`
	Status        Status    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
