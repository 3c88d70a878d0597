// Package notifier consumes completed-transaction events and turns them
// into per-user notifications. Delivery is decoupled from the money path:
// the API publishes events and moves on, the worker absorbs the fan-out.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/terangapay-ledger/internal/domain/notification"
	"github.com/terangapay-ledger/internal/domain/shared"
	"github.com/terangapay-ledger/internal/domain/transaction"
)

// NotifierService builds and stores notifications for both parties of a
// movement
type NotifierService struct {
	notifications notification.Repository
	logger        *slog.Logger
}

// NewNotifierService creates a new notifier service
func NewNotifierService(logger *slog.Logger, notifications notification.Repository) *NotifierService {
	return &NotifierService{
		notifications: notifications,
		logger:        logger,
	}
}

// ProcessEvent stores one notification per on-ledger party of the event.
// Idempotent enough for at-least-once delivery: a duplicate event produces a
// duplicate notification, which is cosmetic, never monetary.
func (s *NotifierService) ProcessEvent(ctx context.Context, event *shared.TransactionEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	for _, target := range notificationTargets(event) {
		n := &notification.Notification{
			ID:            uuid.New(),
			UserID:        target.userID,
			TransactionID: event.TransactionID,
			Kind:          notification.KindTransaction,
			Message:       target.message,
			Status:        notification.StatusUnread,
			CreatedAt:     time.Now(),
		}

		if err := s.notifications.Create(ctx, n); err != nil {
			logger.Error("Failed to store notification",
				"transaction_id", event.TransactionID.String(),
				"user_id", target.userID.String(),
				"error", err,
			)
			return fmt.Errorf("storing notification for transaction %s: %w", event.TransactionID.String(), err)
		}
	}

	logger.Info("Notifications stored",
		"transaction_id", event.TransactionID.String(),
		"type", event.Type,
	)
	return nil
}

type target struct {
	userID  uuid.UUID
	message string
}

// notificationTargets decides who hears about the event and with what
// wording. The RECEIVE leg of a transfer names its beneficiary on the sender
// side, so the debit/credit wording follows the movement type, not the
// record side.
func notificationTargets(event *shared.TransactionEvent) []target {
	amount := event.Amount
	var targets []target

	switch transaction.Type(event.Type) {
	case transaction.TypeSend, transaction.TypeWithdraw, transaction.TypePurchase:
		if event.SenderID != nil {
			targets = append(targets, target{
				userID:  *event.SenderID,
				message: fmt.Sprintf("Your account was debited %s %s (%s)", amount.String(), event.Currency, event.Type),
			})
		}
		if transaction.Type(event.Type) == transaction.TypeWithdraw && event.ReceiverID != nil {
			targets = append(targets, target{
				userID:  *event.ReceiverID,
				message: fmt.Sprintf("You received %s %s (%s)", amount.String(), event.Currency, event.Type),
			})
		}

	case transaction.TypeReceive:
		if event.SenderID != nil {
			targets = append(targets, target{
				userID:  *event.SenderID,
				message: fmt.Sprintf("You received %s %s (%s)", amount.String(), event.Currency, event.Type),
			})
		}

	case transaction.TypeDeposit:
		if event.ReceiverID != nil {
			targets = append(targets, target{
				userID:  *event.ReceiverID,
				message: fmt.Sprintf("You received %s %s (%s)", amount.String(), event.Currency, event.Type),
			})
		}
		if event.SenderID != nil {
			targets = append(targets, target{
				userID:  *event.SenderID,
				message: fmt.Sprintf("Your account was debited %s %s (%s)", amount.String(), event.Currency, event.Type),
			})
		}
	}

	return targets
}
