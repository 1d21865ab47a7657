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

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	GetCommentsByPost(ctx context.Context, postID primitive.ObjectID, skip, limit int64) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error
	CountCommentsByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// CreateComment inserts a new comment
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	if comment.Likes == nil {
		comment.Likes = []primitive.ObjectID{}
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return apperrors.Internal("failed to create comment", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by ID
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("comment not found")
		}
		return nil, apperrors.Internal("failed to load comment", err)
	}
	return &comment, nil
}

// GetCommentsByPost returns a page of comments, newest first, with the
// total count for pagination.
func (r *MongoCommentRepository) GetCommentsByPost(ctx context.Context, postID primitive.ObjectID, skip, limit int64) ([]models.Comment, int64, error) {
	filter := bson.M{"post": postID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to count comments", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list comments", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, 0, apperrors.Internal("failed to decode comments", err)
	}
	return comments, total, nil
}

// UpdateComment persists an edited comment body
func (r *MongoCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	update := bson.M{"$set": bson.M{
		"content":    comment.Content,
		"updated_at": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": comment.ID}, update)
	if err != nil {
		return apperrors.Internal("failed to update comment", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("comment not found")
	}
	return nil
}

// SetLikes persists the likes set. Last write wins under concurrent
// toggles on the same comment.
func (r *MongoCommentRepository) SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"likes": likes}})
	if err != nil {
		return apperrors.Internal("failed to save likes", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("comment not found")
	}
	return nil
}

// DeleteComment deletes a comment by ID
func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("failed to delete comment", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("comment not found")
	}
	return nil
}

// DeleteCommentsByPost removes all comments of a deleted post
func (r *MongoCommentRepository) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"post": postID})
	if err != nil {
		return apperrors.Internal("failed to delete post comments", err)
	}
	return nil
}

// CountCommentsByAuthor returns how many comments a user wrote
func (r *MongoCommentRepository) CountCommentsByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"author": authorID})
	if err != nil {
		return 0, apperrors.Internal("failed to count comments", err)
	}
	return count, nil
}
