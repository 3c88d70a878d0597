package notifier

import (
	"context"

	"github.com/terangapay-ledger/internal/domain/shared"
)

// NotificationService turns transaction events into stored notifications
type NotificationService interface {
	ProcessEvent(ctx context.Context, event *shared.TransactionEvent) error
}
