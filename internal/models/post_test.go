package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToggleLikeIdempotent(t *testing.T) {
	p := &Post{Author: primitive.NewObjectID()}
	user := primitive.NewObjectID()

	liked := p.ToggleLike(user)
	assert.True(t, liked)
	assert.True(t, p.HasLiked(user))
	assert.Len(t, p.Likes, 1)

	liked = p.ToggleLike(user)
	assert.False(t, liked)
	assert.False(t, p.HasLiked(user))
	assert.Empty(t, p.Likes)
}

func TestToggleLikeNeverDuplicates(t *testing.T) {
	user := primitive.NewObjectID()
	// a document written before dedup was enforced
	p := &Post{Likes: []primitive.ObjectID{user, user}}

	p.ToggleLike(user)
	assert.False(t, p.HasLiked(user))

	p.ToggleLike(user)
	assert.Len(t, p.Likes, 1)
}

func TestCommentToggleLike(t *testing.T) {
	c := &Comment{Author: primitive.NewObjectID()}
	user := primitive.NewObjectID()

	liked := c.ToggleLike(user)
	assert.True(t, liked)
	assert.True(t, c.HasLiked(user))
	assert.Len(t, c.Likes, 1)

	liked = c.ToggleLike(user)
	assert.False(t, liked)
	assert.Empty(t, c.Likes)
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "no mentions here", nil},
		{"single", "hello @alice", []string{"alice"}},
		{"dedup", "@bob and @bob again", []string{"bob"}},
		{"multiple", "cc @alice @bob_42", []string{"alice", "bob_42"}},
		{"too short", "a@bc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}

func TestUserHasFriend(t *testing.T) {
	friend := primitive.NewObjectID()
	u := &User{Friends: []primitive.ObjectID{friend}}

	assert.True(t, u.HasFriend(friend))
	assert.False(t, u.HasFriend(primitive.NewObjectID()))
}
