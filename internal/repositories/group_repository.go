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

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	GetGroups(ctx context.Context) ([]models.Group, error)
	GetGroupsByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	SaveMembership(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	SearchGroups(ctx context.Context, query string, limit int64) ([]models.Group, error)
	CountGroups(ctx context.Context) (int64, error)
	CountGroupsByMember(ctx context.Context, userID primitive.ObjectID) (int64, error)
	TopGroupsByMembers(ctx context.Context, limit int64) ([]models.Group, error)
}

// MongoGroupRepository implements GroupRepository for MongoDB
type MongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository creates a new MongoGroupRepository
func NewMongoGroupRepository(db *mongo.Database) *MongoGroupRepository {
	return &MongoGroupRepository{collection: db.Collection("groups")}
}

// CreateGroup inserts a new group after re-applying the membership invariant
func (r *MongoGroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	group.ID = primitive.NewObjectID()
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	group.Normalize()
	if _, err := r.collection.InsertOne(ctx, group); err != nil {
		return apperrors.Internal("failed to create group", err)
	}
	return nil
}

// GetGroupByID retrieves a group by ID
func (r *MongoGroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var group models.Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Internal("failed to load group", err)
	}
	return &group, nil
}

// GetGroups retrieves all groups, newest first
func (r *MongoGroupRepository) GetGroups(ctx context.Context) ([]models.Group, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// GetGroupsByMember retrieves the groups a user belongs to
func (r *MongoGroupRepository) GetGroupsByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	return r.find(ctx, bson.M{"members": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *MongoGroupRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Group, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperrors.Internal("failed to list groups", err)
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, apperrors.Internal("failed to decode groups", err)
	}
	return groups, nil
}

// UpdateGroup persists the mutable group attributes
func (r *MongoGroupRepository) UpdateGroup(ctx context.Context, group *models.Group) error {
	update := bson.M{"$set": bson.M{
		"name":        group.Name,
		"description": group.Description,
		"is_private":  group.IsPrivate,
		"updated_at":  time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": group.ID}, update)
	if err != nil {
		return apperrors.Internal("failed to update group", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("group not found")
	}
	return nil
}

// SaveMembership persists the member and admin sets. Last write wins;
// the invariant is re-applied before persisting.
func (r *MongoGroupRepository) SaveMembership(ctx context.Context, group *models.Group) error {
	group.Normalize()
	update := bson.M{"$set": bson.M{
		"members":    group.Members,
		"admins":     group.Admins,
		"updated_at": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": group.ID}, update)
	if err != nil {
		return apperrors.Internal("failed to save group membership", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("group not found")
	}
	return nil
}

// DeleteGroup deletes a group document
func (r *MongoGroupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("failed to delete group", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("group not found")
	}
	return nil
}

// SearchGroups searches names and descriptions case-insensitively
func (r *MongoGroupRepository) SearchGroups(ctx context.Context, query string, limit int64) ([]models.Group, error) {
	pattern := primitive.Regex{Pattern: regexEscape(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"description": pattern},
	}}
	return r.find(ctx, filter, options.Find().SetLimit(limit))
}

// CountGroups returns the total group count
func (r *MongoGroupRepository) CountGroups(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Internal("failed to count groups", err)
	}
	return count, nil
}

// CountGroupsByMember returns how many groups a user belongs to
func (r *MongoGroupRepository) CountGroupsByMember(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"members": userID})
	if err != nil {
		return 0, apperrors.Internal("failed to count groups", err)
	}
	return count, nil
}

// TopGroupsByMembers returns the largest groups by member count
func (r *MongoGroupRepository) TopGroupsByMembers(ctx context.Context, limit int64) ([]models.Group, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"member_count": bson.M{"$size": "$members"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "member_count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Internal("failed to rank groups", err)
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, apperrors.Internal("failed to decode groups", err)
	}
	return groups, nil
}
