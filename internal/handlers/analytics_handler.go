package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/pkg/response"
)

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	userRepository    repositories.UserRepository
	groupRepository   repositories.GroupRepository
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(userRepo repositories.UserRepository, groupRepo repositories.GroupRepository, postRepo repositories.PostRepository, commentRepo repositories.CommentRepository) *AnalyticsHandler {
	return &AnalyticsHandler{
		userRepository:    userRepo,
		groupRepository:   groupRepo,
		postRepository:    postRepo,
		commentRepository: commentRepo,
	}
}

// RegisterAnalyticsRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterAnalyticsRoutes(g *echo.Group) {
	g.GET("/platform", h.PlatformStats)
	g.GET("/user", h.UserStats)
	g.GET("/group/:groupId", h.GroupStats)
}

// PlatformStats returns platform-wide totals. Admin accounts only.
func (h *AnalyticsHandler) PlatformStats(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return apperrors.Forbidden("admin access required")
	}

	userCount, err := h.userRepository.CountUsers(ctx)
	if err != nil {
		return err
	}
	groupCount, err := h.groupRepository.CountGroups(ctx)
	if err != nil {
		return err
	}
	postCount, err := h.postRepository.CountPosts(ctx)
	if err != nil {
		return err
	}
	topGroups, err := h.groupRepository.TopGroupsByMembers(ctx, 5)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"users":      userCount,
		"groups":     groupCount,
		"posts":      postCount,
		"top_groups": topGroups,
	})
}

// UserStats returns the caller's own activity totals.
func (h *AnalyticsHandler) UserStats(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	postCount, err := h.postRepository.CountPostsByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	groupCount, err := h.groupRepository.CountGroupsByMember(ctx, userID)
	if err != nil {
		return err
	}
	commentCount, err := h.commentRepository.CountCommentsByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	likeCount, err := h.postRepository.CountPostsLikedBy(ctx, userID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"posts":    postCount,
		"groups":   groupCount,
		"comments": commentCount,
		"likes":    likeCount,
	})
}

// GroupStats returns a group's totals and recent posts. Member-only.
func (h *AnalyticsHandler) GroupStats(c echo.Context) error {
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
		return apperrors.Forbidden("you must be a member to view group analytics")
	}

	postCount, err := h.postRepository.CountPostsByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	recentPosts, err := h.postRepository.GetPostsByGroup(ctx, groupID, 5)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"posts":        postCount,
		"members":      len(group.Members),
		"recent_posts": recentPosts,
	})
}
