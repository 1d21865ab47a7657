package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a group document. The membership invariant is:
// creator is always an admin, every admin is a member, and neither set
// contains duplicates. Normalize re-establishes it after any mutation.
type Group struct {
	ID          primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description,omitempty" bson:"description,omitempty"`
	IsPrivate   bool                 `json:"is_private" bson:"is_private"`
	Creator     primitive.ObjectID   `json:"creator" bson:"creator"`
	Admins      []primitive.ObjectID `json:"admins" bson:"admins"`
	Members     []primitive.ObjectID `json:"members" bson:"members"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}

// Normalize re-applies the membership invariant: creator in admins,
// admins subset of members, both sets deduplicated.
func (g *Group) Normalize() {
	g.Admins = appendUnique(g.Admins, g.Creator)
	g.Admins = dedupe(g.Admins)
	for _, admin := range g.Admins {
		g.Members = appendUnique(g.Members, admin)
	}
	g.Members = dedupe(g.Members)
}

// IsMember reports whether id is in the member set.
func (g *Group) IsMember(id primitive.ObjectID) bool {
	return contains(g.Members, id)
}

// IsAdmin reports whether id is in the admin set.
func (g *Group) IsAdmin(id primitive.ObjectID) bool {
	return contains(g.Admins, id)
}

// IsCreator reports whether id created the group.
func (g *Group) IsCreator(id primitive.ObjectID) bool {
	return g.Creator == id
}

// AddMember adds id to the member set and re-applies the invariant.
func (g *Group) AddMember(id primitive.ObjectID) {
	g.Members = appendUnique(g.Members, id)
	g.Normalize()
}

// AddAdmin promotes id to admin, which also makes it a member.
func (g *Group) AddAdmin(id primitive.ObjectID) {
	g.Admins = appendUnique(g.Admins, id)
	g.Normalize()
}

// RemoveMember drops id from both sets. The creator is never removed.
func (g *Group) RemoveMember(id primitive.ObjectID) {
	if id == g.Creator {
		return
	}
	g.Members = remove(g.Members, id)
	g.Admins = remove(g.Admins, id)
	g.Normalize()
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func remove(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// CreateGroupRequest defines the request body for creating a group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPrivate   bool   `json:"is_private"`
}

// UpdateGroupRequest defines the request body for updating a group
type UpdateGroupRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,max=50"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPrivate   *bool  `json:"is_private,omitempty"`
}

// AddMemberRequest defines the request body for adding a group member
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
