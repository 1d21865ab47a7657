package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationNewPost    = "new_post"
	NotificationNewComment = "new_comment"
	NotificationGroupJoin  = "group_join"
	NotificationMessage    = "message"
	NotificationLike       = "like"
	NotificationMention    = "mention"
)

// Notification entity types
const (
	EntityPost    = "post"
	EntityComment = "comment"
	EntityGroup   = "group"
	EntityMessage = "message"
)

// Notification represents a fan-out record for an actionable event.
// Only the recipient may read or mutate it.
type Notification struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Recipient     primitive.ObjectID `json:"recipient" bson:"recipient"`
	Sender        primitive.ObjectID `json:"sender" bson:"sender"`
	Type          string             `json:"type" bson:"type"`
	Content       string             `json:"content" bson:"content"`
	RelatedEntity primitive.ObjectID `json:"related_entity" bson:"related_entity"`
	EntityType    string             `json:"entity_type" bson:"entity_type"`
	Read          bool               `json:"read" bson:"read"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	Type string // empty means any type
	Read *bool  // nil means any read state
}
