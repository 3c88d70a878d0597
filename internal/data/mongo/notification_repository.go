package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/terangapay-ledger/internal/domain/notification"
)

const (
	// NotificationCollectionName is the name of the notifications collection in MongoDB
	NotificationCollectionName = "notifications"
)

// NotificationRepository implements the notification.Repository interface for MongoDB
type NotificationRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewNotificationRepository creates a new MongoDB notification repository
func NewNotificationRepository(logger *slog.Logger, db *mongo.Database) notification.Repository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	collection := r.db.Collection(NotificationCollectionName)

	_, err := collection.InsertOne(ctx, n)
	if err != nil {
		r.logger.Error("Failed to create notification",
			"notification_id", n.ID.String(),
			"user_id", n.UserID.String(),
			"error", err)
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByUserID retrieves paginated notifications for a user, newest first
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	collection := r.db.Collection(NotificationCollectionName)

	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get notifications",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*notification.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		r.logger.Error("Failed to decode notifications",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}

// CountUnreadByUserID counts the unread notifications for a user
func (r *NotificationRepository) CountUnreadByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	collection := r.db.Collection(NotificationCollectionName)

	filter := bson.M{"user_id": userID, "status": notification.StatusUnread}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count unread notifications",
			"user_id", userID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead flips a notification to READ.
// Returns ErrNotificationNotFound if it doesn't exist.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	collection := r.db.Collection(NotificationCollectionName)

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"status": notification.StatusRead}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark notification read",
			"notification_id", id.String(),
			"error", err)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if result.MatchedCount == 0 {
		return notification.ErrNotificationNotFound{NotificationID: id}
	}

	return nil
}
