package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/internal/services"
	"github.com/connectsphere/backend/pkg/response"
)

// PostHandler handles post HTTP requests
type PostHandler struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	groupRepository   repositories.GroupRepository
	userRepository    repositories.UserRepository
	notifier          *services.Notifier
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, notifier *services.Notifier) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		groupRepository:   groupRepo,
		userRepository:    userRepo,
		notifier:          notifier,
	}
}

// RegisterPostRoutes registers post routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("", h.CreatePost)
	g.GET("", h.GetFeed)
	g.GET("/user/:userId", h.GetUserPosts)
	g.GET("/group/:groupId", h.GetGroupPosts)
	g.GET("/:id", h.GetPost)
	g.PATCH("/:id/like", h.ToggleLike)
	g.PATCH("/:id", h.UpdatePost)
	g.DELETE("/:id", h.DeletePost)
}

// CreatePost creates a personal or group post. Group posts require
// membership and notify the other members; @username mentions notify
// the mentioned users.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post := &models.Post{
		Content: req.Content,
		Author:  userID,
		Media:   req.Media,
	}

	var group *models.Group
	if req.GroupID != "" {
		groupID, err := primitive.ObjectIDFromHex(req.GroupID)
		if err != nil {
			return apperrors.Validation("invalid group_id")
		}
		group, err = h.groupRepository.GetGroupByID(ctx, groupID)
		if err != nil {
			return err
		}
		if !group.IsMember(userID) {
			return apperrors.Forbidden("you must be a member to post in this group")
		}
		post.Group = &group.ID
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}

	author, err := h.userRepository.GetUserByID(ctx, userID)
	if err == nil {
		var covered []primitive.ObjectID
		if group != nil {
			covered = group.Members
			h.notifier.NotifyMany(ctx, group.Members, models.Notification{
				Sender:        userID,
				Type:          models.NotificationNewPost,
				Content:       author.Username + " posted in " + group.Name,
				RelatedEntity: post.ID,
				EntityType:    models.EntityPost,
			})
		}
		h.notifier.NotifyMentions(ctx, post.Content, userID, author.Username, post.ID, models.EntityPost, covered)
	}

	return response.Success(c, http.StatusCreated, post)
}

// GetFeed returns the caller's feed: own posts, posts in the caller's
// groups, and personal posts of friends, newest first.
func (h *PostHandler) GetFeed(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	posts, err := h.postRepository.GetFeed(ctx, userID, user.Groups, user.Friends)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, posts)
}

// GetUserPosts returns a user's personal posts.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	authorID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), authorID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, posts)
}

// GetGroupPosts returns a group's posts, member-only.
func (h *PostHandler) GetGroupPosts(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	groupID, err := objectIDParam(c, "groupId")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	group, err := h.groupRepository.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(userID) {
		return apperrors.Forbidden("you must be a member to view group posts")
	}

	_, limit := pagination(c)
	posts, err := h.postRepository.GetPostsByGroup(ctx, groupID, limit)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, posts)
}

// GetPost returns a single post. Group posts are member-only.
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	post, err := h.loadVisiblePost(c, userID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, post)
}

// ToggleLike flips the caller's like on a post. The author is notified
// only when the like is added, never on unlike.
func (h *PostHandler) ToggleLike(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	post, err := h.loadVisiblePost(c, userID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	liked := post.ToggleLike(userID)
	if err := h.postRepository.SetLikes(ctx, post.ID, post.Likes); err != nil {
		return err
	}

	if liked {
		if user, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
			h.notifier.Notify(ctx, &models.Notification{
				Recipient:     post.Author,
				Sender:        userID,
				Type:          models.NotificationLike,
				Content:       user.Username + " liked your post",
				RelatedEntity: post.ID,
				EntityType:    models.EntityPost,
			})
		}
	}
	return response.Success(c, http.StatusOK, echo.Map{"liked": liked, "likes": len(post.Likes)})
}

// UpdatePost applies an author-only partial update.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return err
	}
	if !post.IsAuthor(userID) {
		return apperrors.Forbidden("only the author may update this post")
	}

	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Media != "" {
		post.Media = req.Media
	}

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, post)
}

// DeletePost removes an author's post and its comments.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return err
	}
	if !post.IsAuthor(userID) {
		return apperrors.Forbidden("only the author may delete this post")
	}

	if err := h.commentRepository.DeleteCommentsByPost(ctx, post.ID); err != nil {
		return err
	}
	if err := h.postRepository.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// loadVisiblePost fetches the post and enforces the group membership
// predicate for group posts.
func (h *PostHandler) loadVisiblePost(c echo.Context, userID primitive.ObjectID) (*models.Post, error) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Group != nil {
		group, err := h.groupRepository.GetGroupByID(ctx, *post.Group)
		if err != nil {
			return nil, err
		}
		if !group.IsMember(userID) {
			return nil, apperrors.Forbidden("you must be a member to view this post")
		}
	}
	return post, nil
}
