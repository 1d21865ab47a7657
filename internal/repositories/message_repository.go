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

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	GetThread(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error)
	CountUnread(ctx context.Context, receiverID primitive.ObjectID) (int64, error)
	MarkThreadRead(ctx context.Context, receiverID, senderID primitive.ObjectID) error
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// CreateMessage inserts a new message
func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	message.Read = false
	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return apperrors.Internal("failed to create message", err)
	}
	return nil
}

// GetMessageByID retrieves a message by ID
func (r *MongoMessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("message not found")
		}
		return nil, apperrors.Internal("failed to load message", err)
	}
	return &message, nil
}

// GetThread returns all messages between two users, oldest first
func (r *MongoMessageRepository) GetThread(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Internal("failed to list messages", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, apperrors.Internal("failed to decode messages", err)
	}
	return messages, nil
}

// CountUnread returns the receiver's unread message count
func (r *MongoMessageRepository) CountUnread(ctx context.Context, receiverID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"receiver": receiverID, "read": false})
	if err != nil {
		return 0, apperrors.Internal("failed to count unread messages", err)
	}
	return count, nil
}

// MarkThreadRead flips all unread messages from sender to receiver
func (r *MongoMessageRepository) MarkThreadRead(ctx context.Context, receiverID, senderID primitive.ObjectID) error {
	filter := bson.M{"sender": senderID, "receiver": receiverID, "read": false}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperrors.Internal("failed to mark messages read", err)
	}
	return nil
}

// DeleteMessage deletes a message by ID
func (r *MongoMessageRepository) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("failed to delete message", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("message not found")
	}
	return nil
}
