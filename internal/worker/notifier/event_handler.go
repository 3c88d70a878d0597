package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/terangapay-ledger/internal/domain/shared"
	"github.com/terangapay-ledger/internal/platform/messaging/producers"
)

// EventHandler handles incoming transaction event messages from Kafka
type EventHandler struct {
	notificationService NotificationService
	producer            producers.DeadLetterPublisher
	logger              *slog.Logger
}

// NewEventHandler creates a new handler
func NewEventHandler(
	logger *slog.Logger,
	notificationService NotificationService,
	producer producers.DeadLetterPublisher,
) *EventHandler {
	return &EventHandler{
		notificationService: notificationService,
		producer:            producer,
		logger:              logger,
	}
}

// HandleMessage processes Kafka messages
func (h *EventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.TransactionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal transaction event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Poison messages go to the DLQ so the partition keeps moving
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received transaction event",
		"transaction_id", event.TransactionID.String(),
		"type", event.Type,
		"status", event.Status,
	)

	if err := h.notificationService.ProcessEvent(ctx, &event); err != nil {
		logger.Error("Failed to process transaction event",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("processing event for transaction %s failed: %w", event.TransactionID.String(), err)
	}

	logger.Info("Successfully processed transaction event", "transaction_id", event.TransactionID.String())
	return nil // Success, commit offset
}
