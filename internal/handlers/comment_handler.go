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

// CommentHandler handles comment HTTP requests
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	userRepository    repositories.UserRepository
	notifier          *services.Notifier
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, notifier *services.Notifier) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		userRepository:    userRepo,
		notifier:          notifier,
	}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("", h.CreateComment)
	g.GET("/post/:postId", h.GetPostComments)
	g.GET("/:id", h.GetComment)
	g.PATCH("/:id/like", h.ToggleLike)
	g.PATCH("/:id", h.UpdateComment)
	g.DELETE("/:id", h.DeleteComment)
}

// visiblePost loads a post and enforces group membership when the post
// belongs to a group, so comment reads carry the same visibility rule
// as post reads.
func (h *CommentHandler) visiblePost(c echo.Context, userID, postID primitive.ObjectID) (*models.Post, error) {
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
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

// CreateComment adds a comment to a post, appends the reference to the
// post document, and notifies the post author and mentioned users.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		return apperrors.Validation("invalid post_id")
	}

	ctx := c.Request().Context()
	post, err := h.visiblePost(c, userID, postID)
	if err != nil {
		return err
	}

	comment := &models.Comment{
		Content: req.Content,
		Author:  userID,
		Post:    post.ID,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return err
	}
	if err := h.postRepository.AddCommentRef(ctx, post.ID, comment.ID); err != nil {
		return apperrors.Internal("comment created but post reference failed", err)
	}

	if author, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
		h.notifier.Notify(ctx, &models.Notification{
			Recipient:     post.Author,
			Sender:        userID,
			Type:          models.NotificationNewComment,
			Content:       author.Username + " commented on your post",
			RelatedEntity: comment.ID,
			EntityType:    models.EntityComment,
		})
		h.notifier.NotifyMentions(ctx, comment.Content, userID, author.Username, comment.ID, models.EntityComment, []primitive.ObjectID{post.Author})
	}

	return response.Success(c, http.StatusCreated, comment)
}

// GetPostComments returns a page of a post's comments, newest first.
// Group-post comments are readable by members only.
func (h *CommentHandler) GetPostComments(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "postId")
	if err != nil {
		return err
	}
	if _, err := h.visiblePost(c, userID, postID); err != nil {
		return err
	}

	skip, limit := pagination(c)
	comments, total, err := h.commentRepository.GetCommentsByPost(c.Request().Context(), postID, skip, limit)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, echo.Map{
		"comments": comments,
		"total":    total,
		"hasMore":  skip+int64(len(comments)) < total,
	})
}

// GetComment returns a single comment, subject to the parent post's
// visibility.
func (h *CommentHandler) GetComment(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if _, err := h.visiblePost(c, userID, comment.Post); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, comment)
}

// ToggleLike flips the caller's like on a comment. The author is
// notified only when the like is added, never on unlike.
func (h *CommentHandler) ToggleLike(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := h.visiblePost(c, userID, comment.Post); err != nil {
		return err
	}

	liked := comment.ToggleLike(userID)
	if err := h.commentRepository.SetLikes(ctx, comment.ID, comment.Likes); err != nil {
		return err
	}

	if liked {
		if user, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
			h.notifier.Notify(ctx, &models.Notification{
				Recipient:     comment.Author,
				Sender:        userID,
				Type:          models.NotificationLike,
				Content:       user.Username + " liked your comment",
				RelatedEntity: comment.ID,
				EntityType:    models.EntityComment,
			})
		}
	}
	return response.Success(c, http.StatusOK, echo.Map{"liked": liked, "likes": len(comment.Likes)})
}

// UpdateComment applies an author-only edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if !comment.IsAuthor(userID) {
		return apperrors.Forbidden("only the author may update this comment")
	}

	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(ctx, comment); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, comment)
}

// DeleteComment removes an author's comment and its reference from the
// parent post.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if !comment.IsAuthor(userID) {
		return apperrors.Forbidden("only the author may delete this comment")
	}

	if err := h.commentRepository.DeleteComment(ctx, comment.ID); err != nil {
		return err
	}
	if err := h.postRepository.RemoveCommentRef(ctx, comment.Post, comment.ID); err != nil {
		return apperrors.Internal("comment deleted but post reference removal failed", err)
	}
	return response.NoContent(c)
}
