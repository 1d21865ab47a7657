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

// GroupHandler handles group lifecycle and membership HTTP requests
type GroupHandler struct {
	groupRepository repositories.GroupRepository
	userRepository  repositories.UserRepository
	postRepository  repositories.PostRepository
	notifier        *services.Notifier
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, postRepo repositories.PostRepository, notifier *services.Notifier) *GroupHandler {
	return &GroupHandler{
		groupRepository: groupRepo,
		userRepository:  userRepo,
		postRepository:  postRepo,
		notifier:        notifier,
	}
}

// RegisterGroupRoutes registers group routes
func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.POST("", h.CreateGroup)
	g.GET("", h.ListGroups)
	g.GET("/my-groups", h.MyGroups)
	g.GET("/:id", h.GetGroup)
	g.PATCH("/:id", h.UpdateGroup)
	g.DELETE("/:id", h.DeleteGroup)
	g.POST("/:id/join", h.JoinGroup)
	g.POST("/:id/members", h.AddMember)
	g.DELETE("/:id/members/:memberId", h.RemoveMember)
	g.GET("/:id/friends", h.FriendsNotInGroup)
	g.POST("/:id/admins/:memberId", h.PromoteAdmin)
}

// CreateGroup creates a group with the caller as creator, admin and member.
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Creator:     userID,
	}
	group.Normalize()

	if err := h.groupRepository.CreateGroup(ctx, group); err != nil {
		return err
	}
	if err := h.userRepository.AddGroup(ctx, userID, group.ID); err != nil {
		return apperrors.Internal("group created but membership mirror failed", err)
	}
	return response.Success(c, http.StatusCreated, group)
}

// ListGroups returns all groups.
func (h *GroupHandler) ListGroups(c echo.Context) error {
	groups, err := h.groupRepository.GetGroups(c.Request().Context())
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, groups)
}

// MyGroups returns the caller's groups.
func (h *GroupHandler) MyGroups(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	groups, err := h.groupRepository.GetGroupsByMember(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, groups)
}

// GetGroup returns a single group.
func (h *GroupHandler) GetGroup(c echo.Context) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	group, err := h.groupRepository.GetGroupByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, group)
}

// UpdateGroup applies a partial admin-only update.
func (h *GroupHandler) UpdateGroup(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if !group.IsAdmin(userID) {
		return apperrors.Forbidden("only group admins may update the group")
	}

	var req models.UpdateGroupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.IsPrivate != nil {
		group.IsPrivate = *req.IsPrivate
	}

	if err := h.groupRepository.UpdateGroup(c.Request().Context(), group); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, group)
}

// DeleteGroup removes the group, its posts, and its reference from every
// member document.
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if !group.IsAdmin(userID) {
		return apperrors.Forbidden("only group admins may delete the group")
	}

	ctx := c.Request().Context()
	if err := h.postRepository.DeletePostsByGroup(ctx, group.ID); err != nil {
		return err
	}
	if err := h.userRepository.RemoveGroupFromAll(ctx, group.ID); err != nil {
		return err
	}
	if err := h.groupRepository.DeleteGroup(ctx, group.ID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// JoinGroup lets the caller join a public group.
func (h *GroupHandler) JoinGroup(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if group.IsMember(userID) {
		return apperrors.Conflict("already a member of this group")
	}
	if group.IsPrivate {
		return apperrors.Forbidden("private groups are join by invitation only")
	}

	ctx := c.Request().Context()
	group.AddMember(userID)
	if err := h.groupRepository.SaveMembership(ctx, group); err != nil {
		return err
	}
	if err := h.userRepository.AddGroup(ctx, userID, group.ID); err != nil {
		return apperrors.Internal("member added but membership mirror failed", err)
	}

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err == nil {
		h.notifier.NotifyMany(ctx, group.Admins, models.Notification{
			Sender:        userID,
			Type:          models.NotificationGroupJoin,
			Content:       user.Username + " joined " + group.Name,
			RelatedEntity: group.ID,
			EntityType:    models.EntityGroup,
		})
	}
	return response.Success(c, http.StatusOK, group)
}

// AddMember lets an admin add one of their own friends to the group.
func (h *GroupHandler) AddMember(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if !group.IsAdmin(userID) {
		return apperrors.Forbidden("only group admins may add members")
	}

	var req models.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return apperrors.Validation("invalid user_id")
	}

	ctx := c.Request().Context()
	admin, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !admin.HasFriend(targetID) {
		return apperrors.Forbidden("you can only add your own friends")
	}
	if group.IsMember(targetID) {
		return apperrors.Conflict("user is already a member")
	}
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return err
	}

	group.AddMember(targetID)
	if err := h.groupRepository.SaveMembership(ctx, group); err != nil {
		return err
	}
	if err := h.userRepository.AddGroup(ctx, targetID, group.ID); err != nil {
		return apperrors.Internal("member added but membership mirror failed", err)
	}

	h.notifier.Notify(ctx, &models.Notification{
		Recipient:     targetID,
		Sender:        userID,
		Type:          models.NotificationGroupJoin,
		Content:       admin.Username + " added you to " + group.Name,
		RelatedEntity: group.ID,
		EntityType:    models.EntityGroup,
	})
	return response.Success(c, http.StatusOK, group)
}

// RemoveMember lets an admin remove a member. The creator can never be
// removed; removing an admin also drops their admin role.
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if !group.IsAdmin(userID) {
		return apperrors.Forbidden("only group admins may remove members")
	}
	memberID, err := objectIDParam(c, "memberId")
	if err != nil {
		return err
	}
	if group.IsCreator(memberID) {
		return apperrors.Forbidden("the group creator cannot be removed")
	}
	if !group.IsMember(memberID) {
		return apperrors.NotFound("member not found in this group")
	}

	ctx := c.Request().Context()
	group.RemoveMember(memberID)
	if err := h.groupRepository.SaveMembership(ctx, group); err != nil {
		return err
	}
	if err := h.userRepository.RemoveGroup(ctx, memberID, group.ID); err != nil {
		return apperrors.Internal("member removed but membership mirror failed", err)
	}
	return response.Success(c, http.StatusOK, group)
}

// FriendsNotInGroup returns the caller's friends who are not yet members,
// the candidate list for AddMember.
func (h *GroupHandler) FriendsNotInGroup(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	candidates := make([]models.UserCompact, 0, len(user.Friends))
	for _, friendID := range user.Friends {
		if group.IsMember(friendID) {
			continue
		}
		friend, err := h.userRepository.GetUserByID(ctx, friendID)
		if err != nil {
			continue
		}
		candidates = append(candidates, friend.ToCompact())
	}
	return response.Success(c, http.StatusOK, candidates)
}

// PromoteAdmin lets the creator promote a member to admin.
func (h *GroupHandler) PromoteAdmin(c echo.Context) error {
	userID, group, err := h.loadGroup(c)
	if err != nil {
		return err
	}
	if !group.IsCreator(userID) {
		return apperrors.Forbidden("only the group creator may promote admins")
	}
	memberID, err := objectIDParam(c, "memberId")
	if err != nil {
		return err
	}
	if !group.IsMember(memberID) {
		return apperrors.NotFound("member not found in this group")
	}
	if group.IsAdmin(memberID) {
		return apperrors.Conflict("user is already an admin")
	}

	group.AddAdmin(memberID)
	if err := h.groupRepository.SaveMembership(c.Request().Context(), group); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, group)
}

func (h *GroupHandler) loadGroup(c echo.Context) (primitive.ObjectID, *models.Group, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	group, err := h.groupRepository.GetGroupByID(c.Request().Context(), id)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	return userID, group, nil
}
