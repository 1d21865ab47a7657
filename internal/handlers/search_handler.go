package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/pkg/response"
)

const searchResultCap = 10

// SearchHandler handles search HTTP requests
type SearchHandler struct {
	userRepository  repositories.UserRepository
	groupRepository repositories.GroupRepository
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(userRepo repositories.UserRepository, groupRepo repositories.GroupRepository) *SearchHandler {
	return &SearchHandler{userRepository: userRepo, groupRepository: groupRepo}
}

// RegisterSearchRoutes registers search routes
func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group) {
	g.GET("", h.Search)
}

// Search runs a case-insensitive substring match over users or groups.
func (h *SearchHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 2 {
		return apperrors.Validation("query must be at least 2 characters")
	}

	ctx := c.Request().Context()
	switch c.QueryParam("type") {
	case "groups":
		groups, err := h.groupRepository.SearchGroups(ctx, query, searchResultCap)
		if err != nil {
			return err
		}
		return response.Success(c, http.StatusOK, echo.Map{"groups": groups})
	case "users", "":
		users, err := h.userRepository.SearchUsers(ctx, query, searchResultCap)
		if err != nil {
			return err
		}
		return response.Success(c, http.StatusOK, echo.Map{"users": users})
	default:
		return apperrors.Validation("type must be users or groups")
	}
}
