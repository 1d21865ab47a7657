package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/realtime"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/internal/services"
	"github.com/connectsphere/backend/pkg/response"
)

// MessageHandler handles direct message HTTP requests
type MessageHandler struct {
	messageRepository repositories.MessageRepository
	userRepository    repositories.UserRepository
	hub               *realtime.Hub
	notifier          *services.Notifier
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, hub *realtime.Hub, notifier *services.Notifier) *MessageHandler {
	return &MessageHandler{
		messageRepository: messageRepo,
		userRepository:    userRepo,
		hub:               hub,
		notifier:          notifier,
	}
}

// RegisterMessageRoutes registers message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("", h.SendMessage)
	g.GET("/unread/count", h.UnreadCount)
	g.PATCH("/read/:userId", h.MarkThreadRead)
	g.GET("/:userId", h.GetThread)
	g.DELETE("/:id", h.DeleteMessage)
}

// SendMessage persists a direct message, then best-effort pushes it to
// the receiver's room and records a message notification.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		return apperrors.Validation("invalid receiver_id")
	}
	if receiverID == userID {
		return apperrors.Validation("cannot message yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, receiverID); err != nil {
		return err
	}

	message := &models.Message{
		Sender:   userID,
		Receiver: receiverID,
		Content:  req.Content,
	}
	if err := h.messageRepository.CreateMessage(ctx, message); err != nil {
		return err
	}

	if h.hub != nil {
		h.hub.Broadcast(receiverID.Hex(), realtime.Event{
			Event:    "private_message",
			Sender:   userID.Hex(),
			Receiver: receiverID.Hex(),
			Content:  message.Content,
		})
	}
	if sender, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
		h.notifier.Notify(ctx, &models.Notification{
			Recipient:     receiverID,
			Sender:        userID,
			Type:          models.NotificationMessage,
			Content:       "new message from " + sender.Username,
			RelatedEntity: message.ID,
			EntityType:    models.EntityMessage,
		})
	}

	return response.Success(c, http.StatusCreated, message)
}

// GetThread returns the full conversation with another user, oldest first.
func (h *MessageHandler) GetThread(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	otherID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}

	messages, err := h.messageRepository.GetThread(c.Request().Context(), userID, otherID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, messages)
}

// UnreadCount returns the caller's total unread messages.
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	count, err := h.messageRepository.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkThreadRead flips every unread message from the given sender.
func (h *MessageHandler) MarkThreadRead(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	senderID, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}

	if err := h.messageRepository.MarkThreadRead(c.Request().Context(), userID, senderID); err != nil {
		return err
	}
	return response.SuccessMessage(c, http.StatusOK, "messages marked as read", nil)
}

// DeleteMessage removes a message; only a participant may delete it.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	message, err := h.messageRepository.GetMessageByID(ctx, id)
	if err != nil {
		return err
	}
	if !message.IsParticipant(userID) {
		return apperrors.Forbidden("only a participant may delete this message")
	}

	if err := h.messageRepository.DeleteMessage(ctx, id); err != nil {
		return err
	}
	return response.NoContent(c)
}
