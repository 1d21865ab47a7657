package handlers

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/models"
)

// In-memory repository implementations backing the handler tests.
// They mirror the Mongo repositories' observable behavior: not-found
// errors, recipient scoping, and mirrored two-document writes.

type memUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) put(user *models.User) *models.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return apperrors.Conflict("username already taken")
		}
		if existing.Email == user.Email {
			return apperrors.Conflict("email already registered")
		}
	}
	r.put(user)
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memUserRepo) GetUsers(_ context.Context, limit int64) ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memUserRepo) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NotFound("user not found")
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) AddFriend(_ context.Context, a, b primitive.ObjectID) error {
	ua, ok := r.users[a]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	ub, ok := r.users[b]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	ua.Friends = appendUniqueID(ua.Friends, b)
	ub.Friends = appendUniqueID(ub.Friends, a)
	return nil
}

func (r *memUserRepo) RemoveFriend(_ context.Context, a, b primitive.ObjectID) error {
	if ua, ok := r.users[a]; ok {
		ua.Friends = removeID(ua.Friends, b)
	}
	if ub, ok := r.users[b]; ok {
		ub.Friends = removeID(ub.Friends, a)
	}
	return nil
}

func (r *memUserRepo) AddGroup(_ context.Context, userID, groupID primitive.ObjectID) error {
	user, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	user.Groups = appendUniqueID(user.Groups, groupID)
	return nil
}

func (r *memUserRepo) RemoveGroup(_ context.Context, userID, groupID primitive.ObjectID) error {
	if user, ok := r.users[userID]; ok {
		user.Groups = removeID(user.Groups, groupID)
	}
	return nil
}

func (r *memUserRepo) RemoveGroupFromAll(_ context.Context, groupID primitive.ObjectID) error {
	for _, user := range r.users {
		user.Groups = removeID(user.Groups, groupID)
	}
	return nil
}

func (r *memUserRepo) SearchUsers(_ context.Context, query string, limit int64) ([]models.User, error) {
	q := strings.ToLower(query)
	var out []models.User
	for _, user := range r.users {
		if strings.Contains(strings.ToLower(user.Username), q) || strings.Contains(strings.ToLower(user.Bio), q) {
			out = append(out, *user)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memUserRepo) CountUsers(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type memGroupRepo struct {
	groups map[primitive.ObjectID]*models.Group
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: make(map[primitive.ObjectID]*models.Group)}
}

func (r *memGroupRepo) CreateGroup(_ context.Context, group *models.Group) error {
	group.ID = primitive.NewObjectID()
	r.groups[group.ID] = group
	return nil
}

func (r *memGroupRepo) GetGroupByID(_ context.Context, id primitive.ObjectID) (*models.Group, error) {
	if group, ok := r.groups[id]; ok {
		copied := *group
		return &copied, nil
	}
	return nil, apperrors.NotFound("group not found")
}

func (r *memGroupRepo) GetGroups(_ context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(r.groups))
	for _, group := range r.groups {
		out = append(out, *group)
	}
	return out, nil
}

func (r *memGroupRepo) GetGroupsByMember(_ context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	var out []models.Group
	for _, group := range r.groups {
		if group.IsMember(userID) {
			out = append(out, *group)
		}
	}
	return out, nil
}

func (r *memGroupRepo) UpdateGroup(_ context.Context, group *models.Group) error {
	stored, ok := r.groups[group.ID]
	if !ok {
		return apperrors.NotFound("group not found")
	}
	stored.Name = group.Name
	stored.Description = group.Description
	stored.IsPrivate = group.IsPrivate
	return nil
}

func (r *memGroupRepo) SaveMembership(_ context.Context, group *models.Group) error {
	stored, ok := r.groups[group.ID]
	if !ok {
		return apperrors.NotFound("group not found")
	}
	group.Normalize()
	stored.Members = group.Members
	stored.Admins = group.Admins
	return nil
}

func (r *memGroupRepo) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.groups[id]; !ok {
		return apperrors.NotFound("group not found")
	}
	delete(r.groups, id)
	return nil
}

func (r *memGroupRepo) SearchGroups(_ context.Context, query string, limit int64) ([]models.Group, error) {
	q := strings.ToLower(query)
	var out []models.Group
	for _, group := range r.groups {
		if strings.Contains(strings.ToLower(group.Name), q) || strings.Contains(strings.ToLower(group.Description), q) {
			out = append(out, *group)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memGroupRepo) CountGroups(_ context.Context) (int64, error) {
	return int64(len(r.groups)), nil
}

func (r *memGroupRepo) CountGroupsByMember(_ context.Context, userID primitive.ObjectID) (int64, error) {
	groups, _ := r.GetGroupsByMember(context.Background(), userID)
	return int64(len(groups)), nil
}

func (r *memGroupRepo) TopGroupsByMembers(_ context.Context, limit int64) ([]models.Group, error) {
	out := make([]models.Group, 0, len(r.groups))
	for _, group := range r.groups {
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool { return len(out[i].Members) > len(out[j].Members) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memPostRepo struct {
	posts map[primitive.ObjectID]*models.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *memPostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	r.posts[post.ID] = post
	return nil
}

func (r *memPostRepo) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	if post, ok := r.posts[id]; ok {
		copied := *post
		return &copied, nil
	}
	return nil, apperrors.NotFound("post not found")
}

func (r *memPostRepo) GetFeed(_ context.Context, userID primitive.ObjectID, groupIDs, friendIDs []primitive.ObjectID) ([]models.Post, error) {
	var out []models.Post
	for _, post := range r.posts {
		switch {
		case post.Author == userID:
			out = append(out, *post)
		case post.Group != nil && containsID(groupIDs, *post.Group):
			out = append(out, *post)
		case post.Group == nil && containsID(friendIDs, post.Author):
			out = append(out, *post)
		}
	}
	return out, nil
}

func (r *memPostRepo) GetPostsByAuthor(_ context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	var out []models.Post
	for _, post := range r.posts {
		if post.Author == authorID && post.Group == nil {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (r *memPostRepo) GetPostsByGroup(_ context.Context, groupID primitive.ObjectID, limit int64) ([]models.Post, error) {
	var out []models.Post
	for _, post := range r.posts {
		if post.Group != nil && *post.Group == groupID {
			out = append(out, *post)
		}
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPostRepo) UpdatePost(_ context.Context, post *models.Post) error {
	stored, ok := r.posts[post.ID]
	if !ok {
		return apperrors.NotFound("post not found")
	}
	stored.Content = post.Content
	stored.Media = post.Media
	return nil
}

func (r *memPostRepo) SetLikes(_ context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	post, ok := r.posts[id]
	if !ok {
		return apperrors.NotFound("post not found")
	}
	post.Likes = likes
	return nil
}

func (r *memPostRepo) AddCommentRef(_ context.Context, postID, commentID primitive.ObjectID) error {
	post, ok := r.posts[postID]
	if !ok {
		return apperrors.NotFound("post not found")
	}
	post.Comments = appendUniqueID(post.Comments, commentID)
	return nil
}

func (r *memPostRepo) RemoveCommentRef(_ context.Context, postID, commentID primitive.ObjectID) error {
	if post, ok := r.posts[postID]; ok {
		post.Comments = removeID(post.Comments, commentID)
	}
	return nil
}

func (r *memPostRepo) DeletePost(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.posts[id]; !ok {
		return apperrors.NotFound("post not found")
	}
	delete(r.posts, id)
	return nil
}

func (r *memPostRepo) DeletePostsByGroup(_ context.Context, groupID primitive.ObjectID) error {
	for id, post := range r.posts {
		if post.Group != nil && *post.Group == groupID {
			delete(r.posts, id)
		}
	}
	return nil
}

func (r *memPostRepo) CountPosts(_ context.Context) (int64, error) {
	return int64(len(r.posts)), nil
}

func (r *memPostRepo) CountPostsByAuthor(_ context.Context, authorID primitive.ObjectID) (int64, error) {
	var n int64
	for _, post := range r.posts {
		if post.Author == authorID {
			n++
		}
	}
	return n, nil
}

func (r *memPostRepo) CountPostsByGroup(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	var n int64
	for _, post := range r.posts {
		if post.Group != nil && *post.Group == groupID {
			n++
		}
	}
	return n, nil
}

func (r *memPostRepo) CountPostsLikedBy(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, post := range r.posts {
		if post.HasLiked(userID) {
			n++
		}
	}
	return n, nil
}

type memCommentRepo struct {
	comments map[primitive.ObjectID]*models.Comment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[primitive.ObjectID]*models.Comment)}
}

func (r *memCommentRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	r.comments[comment.ID] = comment
	return nil
}

func (r *memCommentRepo) GetCommentByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	if comment, ok := r.comments[id]; ok {
		copied := *comment
		return &copied, nil
	}
	return nil, apperrors.NotFound("comment not found")
}

func (r *memCommentRepo) GetCommentsByPost(_ context.Context, postID primitive.ObjectID, skip, limit int64) ([]models.Comment, int64, error) {
	var all []models.Comment
	for _, comment := range r.comments {
		if comment.Post == postID {
			all = append(all, *comment)
		}
	}
	total := int64(len(all))
	if skip >= total {
		return nil, total, nil
	}
	all = all[skip:]
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memCommentRepo) UpdateComment(_ context.Context, comment *models.Comment) error {
	stored, ok := r.comments[comment.ID]
	if !ok {
		return apperrors.NotFound("comment not found")
	}
	stored.Content = comment.Content
	return nil
}

func (r *memCommentRepo) SetLikes(_ context.Context, id primitive.ObjectID, likes []primitive.ObjectID) error {
	stored, ok := r.comments[id]
	if !ok {
		return apperrors.NotFound("comment not found")
	}
	stored.Likes = append([]primitive.ObjectID(nil), likes...)
	return nil
}

func (r *memCommentRepo) DeleteComment(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.comments[id]; !ok {
		return apperrors.NotFound("comment not found")
	}
	delete(r.comments, id)
	return nil
}

func (r *memCommentRepo) DeleteCommentsByPost(_ context.Context, postID primitive.ObjectID) error {
	for id, comment := range r.comments {
		if comment.Post == postID {
			delete(r.comments, id)
		}
	}
	return nil
}

func (r *memCommentRepo) CountCommentsByAuthor(_ context.Context, authorID primitive.ObjectID) (int64, error) {
	var n int64
	for _, comment := range r.comments {
		if comment.Author == authorID {
			n++
		}
	}
	return n, nil
}

type memMessageRepo struct {
	messages map[primitive.ObjectID]*models.Message
	order    []primitive.ObjectID
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: make(map[primitive.ObjectID]*models.Message)}
}

func (r *memMessageRepo) CreateMessage(_ context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Read = false
	r.messages[message.ID] = message
	r.order = append(r.order, message.ID)
	return nil
}

func (r *memMessageRepo) GetMessageByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	if message, ok := r.messages[id]; ok {
		copied := *message
		return &copied, nil
	}
	return nil, apperrors.NotFound("message not found")
}

func (r *memMessageRepo) GetThread(_ context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	var out []models.Message
	for _, id := range r.order {
		message := r.messages[id]
		if message == nil {
			continue
		}
		if (message.Sender == a && message.Receiver == b) || (message.Sender == b && message.Receiver == a) {
			out = append(out, *message)
		}
	}
	return out, nil
}

func (r *memMessageRepo) CountUnread(_ context.Context, receiverID primitive.ObjectID) (int64, error) {
	var n int64
	for _, message := range r.messages {
		if message.Receiver == receiverID && !message.Read {
			n++
		}
	}
	return n, nil
}

func (r *memMessageRepo) MarkThreadRead(_ context.Context, receiverID, senderID primitive.ObjectID) error {
	for _, message := range r.messages {
		if message.Receiver == receiverID && message.Sender == senderID {
			message.Read = true
		}
	}
	return nil
}

func (r *memMessageRepo) DeleteMessage(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.messages[id]; !ok {
		return apperrors.NotFound("message not found")
	}
	delete(r.messages, id)
	return nil
}

type memNotificationRepo struct {
	notifications []*models.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (r *memNotificationRepo) CreateNotification(_ context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *memNotificationRepo) CreateNotifications(_ context.Context, notifications []models.Notification) error {
	for i := range notifications {
		notifications[i].ID = primitive.NewObjectID()
		copied := notifications[i]
		r.notifications = append(r.notifications, &copied)
	}
	return nil
}

func (r *memNotificationRepo) GetByRecipient(_ context.Context, recipientID primitive.ObjectID, filter models.NotificationFilter, skip, limit int64) ([]models.Notification, int64, error) {
	var all []models.Notification
	for _, n := range r.notifications {
		if n.Recipient != recipientID {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	if skip >= total {
		return nil, total, nil
	}
	all = all[skip:]
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memNotificationRepo) MarkAsRead(_ context.Context, id, recipientID primitive.ObjectID) error {
	for _, n := range r.notifications {
		if n.ID == id && n.Recipient == recipientID {
			n.Read = true
			return nil
		}
	}
	return apperrors.NotFound("notification not found")
}

func (r *memNotificationRepo) MarkAllAsRead(_ context.Context, recipientID primitive.ObjectID) error {
	for _, n := range r.notifications {
		if n.Recipient == recipientID {
			n.Read = true
		}
	}
	return nil
}

func (r *memNotificationRepo) DeleteNotification(_ context.Context, id, recipientID primitive.ObjectID) error {
	for i, n := range r.notifications {
		if n.ID == id && n.Recipient == recipientID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("notification not found")
}

func (r *memNotificationRepo) DeleteAll(_ context.Context, recipientID primitive.ObjectID) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.Recipient != recipientID {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func (r *memNotificationRepo) forRecipient(recipientID primitive.ObjectID) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.Recipient == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func appendUniqueID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
