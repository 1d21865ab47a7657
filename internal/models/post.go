package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post document. Group is nil for personal-feed
// posts. Comments are referenced, not embedded; the likes set is
// deduplicated.
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Content   string               `json:"content" bson:"content"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Group     *primitive.ObjectID  `json:"group,omitempty" bson:"group,omitempty"`
	Media     string               `json:"media,omitempty" bson:"media,omitempty"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// IsAuthor reports whether id authored the post.
func (p *Post) IsAuthor(id primitive.ObjectID) bool {
	return p.Author == id
}

// HasLiked reports whether id is in the likes set.
func (p *Post) HasLiked(id primitive.ObjectID) bool {
	return contains(p.Likes, id)
}

// ToggleLike flips id's presence in the likes set and reports the
// resulting liked state. Double invocation converges to the original
// state; the set never holds duplicates.
func (p *Post) ToggleLike(id primitive.ObjectID) bool {
	if p.HasLiked(id) {
		p.Likes = remove(p.Likes, id)
		return false
	}
	p.Likes = appendUnique(p.Likes, id)
	return true
}

// Comment represents a comment document referencing its parent post.
type Comment struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Content   string               `json:"content" bson:"content"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Post      primitive.ObjectID   `json:"post" bson:"post"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// IsAuthor reports whether id authored the comment.
func (c *Comment) IsAuthor(id primitive.ObjectID) bool {
	return c.Author == id
}

// HasLiked reports whether id is in the likes set.
func (c *Comment) HasLiked(id primitive.ObjectID) bool {
	return contains(c.Likes, id)
}

// ToggleLike flips id's presence in the likes set and reports the
// resulting state, true when the like was added.
func (c *Comment) ToggleLike(id primitive.ObjectID) bool {
	if c.HasLiked(id) {
		c.Likes = remove(c.Likes, id)
		return false
	}
	c.Likes = appendUnique(c.Likes, id)
	return true
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{3,30})`)

// ExtractMentions returns the deduplicated @usernames found in content.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// CreatePostRequest defines the request body for creating a post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
	GroupID string `json:"group_id,omitempty"`
	Media   string `json:"media,omitempty" validate:"omitempty,url"`
}

// UpdatePostRequest defines the request body for updating a post
type UpdatePostRequest struct {
	Content string `json:"content,omitempty" validate:"omitempty,min=1,max=1000"`
	Media   string `json:"media,omitempty" validate:"omitempty,url"`
}

// CreateCommentRequest defines the request body for creating a comment
type CreateCommentRequest struct {
	PostID  string `json:"post_id" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for updating a comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
