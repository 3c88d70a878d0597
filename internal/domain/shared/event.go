package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionEvent is the Kafka message emitted when a transaction reaches a
// terminal status. The worker turns it into user notifications; it carries
// enough context to build the message without a database round trip.
type TransactionEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TransferID    *uuid.UUID      `json:"transfer_id,omitempty"`
	SenderID      *uuid.UUID      `json:"sender_id,omitempty"`
	ReceiverID    *uuid.UUID      `json:"receiver_id,omitempty"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	Currency      string          `json:"currency"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
