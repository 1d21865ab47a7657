package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/pkg/response"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notificationRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.ListNotifications)
	g.PATCH("/read-all", h.MarkAllRead)
	g.PATCH("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.DeleteNotification)
	g.DELETE("", h.DeleteAll)
}

// ListNotifications returns a filtered page of the caller's
// notifications, newest first.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	filter := models.NotificationFilter{Type: c.QueryParam("type")}
	if raw := c.QueryParam("read"); raw != "" {
		if read, err := strconv.ParseBool(raw); err == nil {
			filter.Read = &read
		}
	}

	skip, limit := pagination(c)
	notifications, total, err := h.notificationRepository.GetByRecipient(c.Request().Context(), userID, filter, skip, limit)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, echo.Map{
		"notifications": notifications,
		"total":         total,
		"hasMore":       skip+int64(len(notifications)) < total,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return response.SuccessMessage(c, http.StatusOK, "notification marked as read", nil)
}

// MarkAllRead marks every notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), userID); err != nil {
		return err
	}
	return response.SuccessMessage(c, http.StatusOK, "all notifications marked as read", nil)
}

// DeleteNotification removes one of the caller's notifications.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.DeleteNotification(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return response.NoContent(c)
}

// DeleteAll removes every notification of the caller.
func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	if err := h.notificationRepository.DeleteAll(c.Request().Context(), userID); err != nil {
		return err
	}
	return response.NoContent(c)
}
