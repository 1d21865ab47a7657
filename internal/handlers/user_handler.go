package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/pkg/response"
)

const userListCap = 50

// UserHandler handles user profile and friendship HTTP requests
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterUserRoutes registers user and friendship routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("", h.ListUsers)
	g.GET("/profile", h.GetProfile)
	g.PATCH("/profile", h.UpdateProfile)
	g.GET("/friends", h.ListFriends)
	g.POST("/friends/:id", h.AddFriend)
	g.DELETE("/friends/:id", h.RemoveFriend)
	g.GET("/:id", h.GetUser)
}

// ListUsers returns a capped list of users in compact form.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userRepository.GetUsers(c.Request().Context(), userListCap)
	if err != nil {
		return err
	}
	compact := make([]models.UserCompact, 0, len(users))
	for i := range users {
		compact = append(compact, users[i].ToCompact())
	}
	return response.Success(c, http.StatusOK, compact)
}

// GetUser returns a single user's public profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, user)
}

// GetProfile returns the authenticated user with expanded friends.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	friends, err := h.expandFriends(c, user)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, echo.Map{"user": user, "friends": friends})
}

// UpdateProfile applies a partial self-update. Username and email
// uniqueness is re-checked against other accounts.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if req.Username != "" && req.Username != user.Username {
		if existing, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil && existing.ID != userID {
			return apperrors.Conflict("username already taken")
		}
		user.Username = req.Username
	}
	if email := strings.ToLower(req.Email); email != "" && email != user.Email {
		if existing, err := h.userRepository.GetUserByEmail(ctx, email); err == nil && existing.ID != userID {
			return apperrors.Conflict("email already registered")
		}
		user.Email = email
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.ProfilePicture != "" {
		user.ProfilePicture = req.ProfilePicture
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, user)
}

// ListFriends returns the authenticated user's friends in compact form.
func (h *UserHandler) ListFriends(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	friends, err := h.expandFriends(c, user)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, friends)
}

// AddFriend creates a mutual friendship with the target user.
func (h *UserHandler) AddFriend(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	friendID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	if friendID == userID {
		return apperrors.Validation("cannot add yourself as a friend")
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasFriend(friendID) {
		return apperrors.Conflict("already friends")
	}
	if _, err := h.userRepository.GetUserByID(ctx, friendID); err != nil {
		return err
	}

	if err := h.userRepository.AddFriend(ctx, userID, friendID); err != nil {
		return err
	}
	return response.SuccessMessage(c, http.StatusOK, "friend added", nil)
}

// RemoveFriend removes a mutual friendship.
func (h *UserHandler) RemoveFriend(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	friendID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasFriend(friendID) {
		return apperrors.NotFound("friend not found")
	}

	if err := h.userRepository.RemoveFriend(ctx, userID, friendID); err != nil {
		return err
	}
	return response.NoContent(c)
}

func (h *UserHandler) expandFriends(c echo.Context, user *models.User) ([]models.UserCompact, error) {
	friends := make([]models.UserCompact, 0, len(user.Friends))
	for _, friendID := range user.Friends {
		friend, err := h.userRepository.GetUserByID(c.Request().Context(), friendID)
		if err != nil {
			// dangling reference, skip rather than fail the profile
			continue
		}
		friends = append(friends, friend.ToCompact())
	}
	return friends, nil
}
