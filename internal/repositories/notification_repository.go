package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/models"
)

// NotificationRepository defines the interface for notification
// operations. Every read and mutation is scoped to the recipient.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, filter models.NotificationFilter, skip, limit int64) ([]models.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) error
	DeleteNotification(ctx context.Context, id, recipientID primitive.ObjectID) error
	DeleteAll(ctx context.Context, recipientID primitive.ObjectID) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// CreateNotification inserts a single notification
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	notification.Read = false
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return apperrors.Internal("failed to create notification", err)
	}
	return nil
}

// CreateNotifications inserts a fan-out batch in one call
func (r *MongoNotificationRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(notifications))
	for i := range notifications {
		notifications[i].ID = primitive.NewObjectID()
		notifications[i].CreatedAt = now
		notifications[i].Read = false
		docs[i] = notifications[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return apperrors.Internal("failed to create notifications", err)
	}
	return nil
}

// GetByRecipient returns a filtered page of the recipient's
// notifications, newest first, with the total matching count.
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, filter models.NotificationFilter, skip, limit int64) ([]models.Notification, int64, error) {
	query := bson.M{"recipient": recipientID}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Read != nil {
		query["read"] = *filter.Read
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to count notifications", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, apperrors.Internal("failed to decode notifications", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks one of the recipient's notifications as read.
// A notification belonging to someone else reads as not found.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "recipient": recipientID}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperrors.Internal("failed to mark notification read", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

// MarkAllAsRead marks all the recipient's notifications as read
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) error {
	filter := bson.M{"recipient": recipientID, "read": false}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperrors.Internal("failed to mark notifications read", err)
	}
	return nil
}

// DeleteNotification deletes one of the recipient's notifications
func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, id, recipientID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipientID})
	if err != nil {
		return apperrors.Internal("failed to delete notification", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

// DeleteAll deletes all the recipient's notifications
func (r *MongoNotificationRepository) DeleteAll(ctx context.Context, recipientID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"recipient": recipientID})
	if err != nil {
		return apperrors.Internal("failed to delete notifications", err)
	}
	return nil
}
