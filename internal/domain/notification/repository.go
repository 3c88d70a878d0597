package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages notification persistence with pagination support
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error)
	CountUnreadByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// ErrNotificationNotFound indicates missing notification
type ErrNotificationNotFound struct {
	NotificationID uuid.UUID
}

func (e ErrNotificationNotFound) Error() string {
	return "notification not found: " + e.NotificationID.String()
}

// Is matches any ErrNotificationNotFound when the target carries a nil ID
func (e ErrNotificationNotFound) Is(target error) bool {
	t, ok := target.(ErrNotificationNotFound)
	if !ok {
		return false
	}
	if t.NotificationID == uuid.Nil {
		return true
	}
	return e.NotificationID == t.NotificationID
}
