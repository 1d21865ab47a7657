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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetFeed(ctx context.Context, userID primitive.ObjectID, groupIDs, friendIDs []primitive.ObjectID) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error)
	GetPostsByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error
	AddCommentRef(ctx context.Context, postID, commentID primitive.ObjectID) error
	RemoveCommentRef(ctx context.Context, postID, commentID primitive.ObjectID) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	DeletePostsByGroup(ctx context.Context, groupID primitive.ObjectID) error
	CountPosts(ctx context.Context) (int64, error)
	CountPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error)
	CountPostsByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
	CountPostsLikedBy(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts a new post
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []primitive.ObjectID{}
	}
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return apperrors.Internal("failed to create post", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.Internal("failed to load post", err)
	}
	return &post, nil
}

// GetFeed returns the user's own posts, posts from the given groups,
// and personal posts from the given friends, newest first. The three
// clauses are disjoint: friend posts are restricted to group-less ones
// and a friend's own ID never appears in friendIDs.
func (r *MongoPostRepository) GetFeed(ctx context.Context, userID primitive.ObjectID, groupIDs, friendIDs []primitive.ObjectID) ([]models.Post, error) {
	if groupIDs == nil {
		groupIDs = []primitive.ObjectID{}
	}
	if friendIDs == nil {
		friendIDs = []primitive.ObjectID{}
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"author": userID},
		bson.M{"group": bson.M{"$in": groupIDs}},
		bson.M{"$and": bson.A{
			bson.M{"author": bson.M{"$in": friendIDs, "$ne": userID}},
			bson.M{"group": nil},
		}},
	}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// GetPostsByAuthor returns a user's personal (group-less) posts
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	filter := bson.M{"author": authorID, "group": nil}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// GetPostsByGroup returns a group's posts, newest first
func (r *MongoPostRepository) GetPostsByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{"group": groupID}, opts)
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperrors.Internal("failed to list posts", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperrors.Internal("failed to decode posts", err)
	}
	return posts, nil
}

// UpdatePost persists content and media changes
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	update := bson.M{"$set": bson.M{
		"content":    post.Content,
		"media":      post.Media,
		"updated_at": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return apperrors.Internal("failed to update post", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// SetLikes persists the likes set. Last write wins under concurrent
// toggles on the same post.
func (r *MongoPostRepository) SetLikes(ctx context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"likes": likes}})
	if err != nil {
		return apperrors.Internal("failed to save likes", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// AddCommentRef appends a comment reference to the post document
func (r *MongoPostRepository) AddCommentRef(ctx context.Context, postID, commentID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$addToSet": bson.M{"comments": commentID}})
	if err != nil {
		return apperrors.Internal("failed to attach comment", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// RemoveCommentRef removes a comment reference from the post document
func (r *MongoPostRepository) RemoveCommentRef(ctx context.Context, postID, commentID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$pull": bson.M{"comments": commentID}})
	if err != nil {
		return apperrors.Internal("failed to detach comment", err)
	}
	return nil
}

// DeletePost deletes a post by ID
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("failed to delete post", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// DeletePostsByGroup removes all posts of a deleted group
func (r *MongoPostRepository) DeletePostsByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"group": groupID})
	if err != nil {
		return apperrors.Internal("failed to delete group posts", err)
	}
	return nil
}

// CountPosts returns the total post count
func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

// CountPostsByAuthor returns how many posts a user authored
func (r *MongoPostRepository) CountPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"author": authorID})
}

// CountPostsByGroup returns how many posts a group holds
func (r *MongoPostRepository) CountPostsByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"group": groupID})
}

// CountPostsLikedBy returns how many posts a user has liked
func (r *MongoPostRepository) CountPostsLikedBy(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"likes": userID})
}

func (r *MongoPostRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperrors.Internal("failed to count posts", err)
	}
	return count, nil
}
