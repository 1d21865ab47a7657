package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/models"
)

func TestCreateCommentAppendsRefAndNotifies(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	post := env.addPost(t, alice.ID, "hello", nil)

	c, rec := env.newContext(http.MethodPost, "/api/comments", models.CreateCommentRequest{
		PostID:  post.ID.Hex(),
		Content: "nice post",
	}, bob.ID)
	require.NoError(t, env.comment.CreateComment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	stored, _ := env.posts.GetPostByID(context.Background(), post.ID)
	require.Len(t, stored.Comments, 1)

	notes := env.notifications.forRecipient(alice.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationNewComment, notes[0].Type)
}

func TestCreateCommentOnGroupPostRequiresMembership(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	group := env.createGroup(t, alice.ID, "gophers", false)
	post := env.addPost(t, alice.ID, "inside", &group.ID)

	c, _ := env.newContext(http.MethodPost, "/api/comments", models.CreateCommentRequest{
		PostID:  post.ID.Hex(),
		Content: "sneaky",
	}, bob.ID)
	err := env.comment.CreateComment(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestCommentMentionSkipsPostAuthorDoubleNotify(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	post := env.addPost(t, alice.ID, "hello", nil)

	c, _ := env.newContext(http.MethodPost, "/api/comments", models.CreateCommentRequest{
		PostID:  post.ID.Hex(),
		Content: "great one @alice",
	}, bob.ID)
	require.NoError(t, env.comment.CreateComment(c))

	// Only the new_comment notification, not an extra mention one.
	notes := env.notifications.forRecipient(alice.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationNewComment, notes[0].Type)
}

func TestGetPostCommentsOnGroupPostRequiresMembership(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	group := env.createGroup(t, alice.ID, "gophers", true)
	post := env.addPost(t, alice.ID, "inside", &group.ID)

	comment := &models.Comment{Content: "members only", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	c, _ := env.newContext(http.MethodGet, "/api/comments/post/"+post.ID.Hex(), nil, bob.ID)
	c.SetParamNames("postId")
	c.SetParamValues(post.ID.Hex())
	err := env.comment.GetPostComments(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	c, rec := env.newContext(http.MethodGet, "/api/comments/post/"+post.ID.Hex(), nil, alice.ID)
	c.SetParamNames("postId")
	c.SetParamValues(post.ID.Hex())
	require.NoError(t, env.comment.GetPostComments(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCommentOnGroupPostRequiresMembership(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	group := env.createGroup(t, alice.ID, "gophers", true)
	post := env.addPost(t, alice.ID, "inside", &group.ID)

	comment := &models.Comment{Content: "members only", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	c, _ := env.newContext(http.MethodGet, "/api/comments/"+comment.ID.Hex(), nil, bob.ID)
	c.SetParamNames("id")
	c.SetParamValues(comment.ID.Hex())
	err := env.comment.GetComment(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestToggleCommentLikeNotifiesOnLikeOnly(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	post := env.addPost(t, alice.ID, "hello", nil)

	comment := &models.Comment{Content: "nice", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	like := func(as *models.User) (echo.Context, *httptest.ResponseRecorder) {
		c, rec := env.newContext(http.MethodPatch, "/api/comments/"+comment.ID.Hex()+"/like", nil, as.ID)
		c.SetParamNames("id")
		c.SetParamValues(comment.ID.Hex())
		return c, rec
	}

	c, rec := like(bob)
	require.NoError(t, env.comment.ToggleLike(c))
	data := dataMap(t, rec)
	assert.Equal(t, true, data["liked"])
	assert.Equal(t, float64(1), data["likes"])

	notes := env.notifications.forRecipient(alice.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationLike, notes[0].Type)

	// Unlike removes the like without a second notification.
	c, rec = like(bob)
	require.NoError(t, env.comment.ToggleLike(c))
	data = dataMap(t, rec)
	assert.Equal(t, false, data["liked"])
	assert.Equal(t, float64(0), data["likes"])
	assert.Len(t, env.notifications.forRecipient(alice.ID), 1)
}

func TestToggleCommentLikeOnGroupPostRequiresMembership(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	group := env.createGroup(t, alice.ID, "gophers", false)
	post := env.addPost(t, alice.ID, "inside", &group.ID)

	comment := &models.Comment{Content: "members only", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	c, _ := env.newContext(http.MethodPatch, "/api/comments/"+comment.ID.Hex()+"/like", nil, bob.ID)
	c.SetParamNames("id")
	c.SetParamValues(comment.ID.Hex())
	err := env.comment.ToggleLike(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestDeleteCommentRemovesRef(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	post := env.addPost(t, alice.ID, "hello", nil)

	comment := &models.Comment{Content: "nice", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))
	require.NoError(t, env.posts.AddCommentRef(context.Background(), post.ID, comment.ID))

	c, rec := env.newContext(http.MethodDelete, "/api/comments/"+comment.ID.Hex(), nil, alice.ID)
	c.SetParamNames("id")
	c.SetParamValues(comment.ID.Hex())
	require.NoError(t, env.comment.DeleteComment(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	stored, _ := env.posts.GetPostByID(context.Background(), post.ID)
	assert.Empty(t, stored.Comments)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	post := env.addPost(t, alice.ID, "hello", nil)

	comment := &models.Comment{Content: "original", Author: alice.ID, Post: post.ID}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	c, _ := env.newContext(http.MethodPatch, "/api/comments/"+comment.ID.Hex(), models.UpdateCommentRequest{
		Content: "edited",
	}, bob.ID)
	c.SetParamNames("id")
	c.SetParamValues(comment.ID.Hex())
	err := env.comment.UpdateComment(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestGetPostCommentsPagination(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	post := env.addPost(t, alice.ID, "hello", nil)
	for i := 0; i < 3; i++ {
		comment := &models.Comment{Content: "c", Author: alice.ID, Post: post.ID}
		require.NoError(t, env.comments.CreateComment(context.Background(), comment))
	}

	c, rec := env.newContext(http.MethodGet, "/api/comments/post/"+post.ID.Hex()+"?skip=0&limit=2", nil, alice.ID)
	c.SetParamNames("postId")
	c.SetParamValues(post.ID.Hex())
	require.NoError(t, env.comment.GetPostComments(c))

	data := dataMap(t, rec)
	assert.Equal(t, float64(3), data["total"])
	assert.Equal(t, true, data["hasMore"])
	assert.Len(t, data["comments"], 2)
}
