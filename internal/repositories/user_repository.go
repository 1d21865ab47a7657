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

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, limit int64) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	AddFriend(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriend(ctx context.Context, a, b primitive.ObjectID) error
	AddGroup(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveGroup(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveGroupFromAll(ctx context.Context, groupID primitive.ObjectID) error
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts a new user, rejecting duplicate usernames/emails
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"$or": bson.A{
			bson.M{"username": user.Username},
			bson.M{"email": user.Email},
		},
	})
	if err != nil {
		return apperrors.Internal("failed to check existing users", err)
	}
	if count > 0 {
		return apperrors.Conflict("username or email already registered")
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.Groups == nil {
		user.Groups = []primitive.ObjectID{}
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("username or email already registered")
		}
		return apperrors.Internal("failed to create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user by username
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	return &user, nil
}

// GetUsers retrieves users up to limit
func (r *MongoUserRepository) GetUsers(ctx context.Context, limit int64) ([]models.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetLimit(limit))
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Internal("failed to decode users", err)
	}
	return users, nil
}

// UpdateUser persists mutable profile fields
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	update := bson.M{"$set": bson.M{
		"username":        user.Username,
		"email":           user.Email,
		"bio":             user.Bio,
		"profile_picture": user.ProfilePicture,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("username or email already registered")
		}
		return apperrors.Internal("failed to update user", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// AddFriend writes the friend edge to both user documents. A partial
// write is surfaced as an internal consistency error, never swallowed.
func (r *MongoUserRepository) AddFriend(ctx context.Context, a, b primitive.ObjectID) error {
	if err := r.updateFriendSet(ctx, a, b, "$addToSet"); err != nil {
		return err
	}
	if err := r.updateFriendSet(ctx, b, a, "$addToSet"); err != nil {
		return apperrors.Internal("friend edge partially written: second side failed", err)
	}
	return nil
}

// RemoveFriend removes the friend edge from both user documents
func (r *MongoUserRepository) RemoveFriend(ctx context.Context, a, b primitive.ObjectID) error {
	if err := r.updateFriendSet(ctx, a, b, "$pull"); err != nil {
		return err
	}
	if err := r.updateFriendSet(ctx, b, a, "$pull"); err != nil {
		return apperrors.Internal("friend edge partially removed: second side failed", err)
	}
	return nil
}

func (r *MongoUserRepository) updateFriendSet(ctx context.Context, userID, friendID primitive.ObjectID, op string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{op: bson.M{"friends": friendID}})
	if err != nil {
		return apperrors.Internal("failed to update friend set", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// AddGroup adds a group reference to the user document
func (r *MongoUserRepository) AddGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"groups": groupID}})
	if err != nil {
		return apperrors.Internal("failed to add group reference", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// RemoveGroup removes a group reference from the user document
func (r *MongoUserRepository) RemoveGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"groups": groupID}})
	if err != nil {
		return apperrors.Internal("failed to remove group reference", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// RemoveGroupFromAll strips a deleted group from every user document
func (r *MongoUserRepository) RemoveGroupFromAll(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"groups": groupID}, bson.M{"$pull": bson.M{"groups": groupID}})
	if err != nil {
		return apperrors.Internal("failed to remove group references", err)
	}
	return nil
}

// SearchUsers searches usernames and bios case-insensitively
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexEscape(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"bio": pattern},
	}}
	return r.find(ctx, filter, options.Find().SetLimit(limit))
}

// CountUsers returns the total user count
func (r *MongoUserRepository) CountUsers(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperrors.Internal("failed to count users", err)
	}
	return count, nil
}
