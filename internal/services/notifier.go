package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/realtime"
	"github.com/connectsphere/backend/internal/repositories"
)

// Notifier persists notifications and pushes them to connected clients.
// Persistence comes first; the realtime emit is best-effort and never
// fails the calling request.
type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	hub           *realtime.Hub
	log           *logrus.Logger
}

func NewNotifier(notifications repositories.NotificationRepository, users repositories.UserRepository, hub *realtime.Hub, log *logrus.Logger) *Notifier {
	return &Notifier{notifications: notifications, users: users, hub: hub, log: log}
}

// Notify stores one notification and emits it to the recipient's room.
func (n *Notifier) Notify(ctx context.Context, notification *models.Notification) {
	if notification.Recipient == notification.Sender {
		return
	}
	if err := n.notifications.CreateNotification(ctx, notification); err != nil {
		n.log.WithError(err).Warn("failed to store notification")
		return
	}
	n.emit(notification)
}

// NotifyMany stores one notification per recipient in a single batch and
// emits each. The sender is always excluded.
func (n *Notifier) NotifyMany(ctx context.Context, recipients []primitive.ObjectID, template models.Notification) {
	batch := make([]models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		if recipient == template.Sender {
			continue
		}
		item := template
		item.Recipient = recipient
		batch = append(batch, item)
	}
	if len(batch) == 0 {
		return
	}
	if err := n.notifications.CreateNotifications(ctx, batch); err != nil {
		n.log.WithError(err).Warn("failed to store notification batch")
		return
	}
	for i := range batch {
		n.emit(&batch[i])
	}
}

// NotifyMentions resolves @username tokens in content to users and sends
// each a mention notification. Unknown usernames are skipped; already
// covered recipients are not notified twice.
func (n *Notifier) NotifyMentions(ctx context.Context, content string, sender primitive.ObjectID, senderName string, entity primitive.ObjectID, entityType string, covered []primitive.ObjectID) {
	seen := make(map[primitive.ObjectID]bool, len(covered))
	for _, id := range covered {
		seen[id] = true
	}

	for _, username := range models.ExtractMentions(content) {
		user, err := n.users.GetUserByUsername(ctx, username)
		if err != nil {
			continue
		}
		if user.ID == sender || seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		n.Notify(ctx, &models.Notification{
			Recipient:     user.ID,
			Sender:        sender,
			Type:          models.NotificationMention,
			Content:       senderName + " mentioned you",
			RelatedEntity: entity,
			EntityType:    entityType,
		})
	}
}

func (n *Notifier) emit(notification *models.Notification) {
	if n.hub == nil {
		return
	}
	n.hub.Broadcast(notification.Recipient.Hex(), realtime.Event{
		Event:   "notification",
		Sender:  notification.Sender.Hex(),
		Content: notification.Content,
		Message: notification.Type,
	})
}
