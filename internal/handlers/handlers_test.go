package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/services"
	"github.com/connectsphere/backend/pkg/response"
	"github.com/connectsphere/backend/validators"
)

const testJWTSecret = "test-secret"

// testEnv wires every handler against in-memory repositories.
type testEnv struct {
	e             *echo.Echo
	users         *memUserRepo
	groups        *memGroupRepo
	posts         *memPostRepo
	comments      *memCommentRepo
	messages      *memMessageRepo
	notifications *memNotificationRepo
	notifier      *services.Notifier

	auth          *AuthHandler
	user          *UserHandler
	group         *GroupHandler
	post          *PostHandler
	comment       *CommentHandler
	message       *MessageHandler
	notification  *NotificationHandler
	search        *SearchHandler
	analytics     *AnalyticsHandler
}

func newTestEnv() *testEnv {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	env := &testEnv{
		e:             echo.New(),
		users:         newMemUserRepo(),
		groups:        newMemGroupRepo(),
		posts:         newMemPostRepo(),
		comments:      newMemCommentRepo(),
		messages:      newMemMessageRepo(),
		notifications: newMemNotificationRepo(),
	}
	env.e.Validator = validators.NewValidator()
	env.notifier = services.NewNotifier(env.notifications, env.users, nil, log)

	env.auth = NewAuthHandler(env.users, testJWTSecret)
	env.user = NewUserHandler(env.users)
	env.group = NewGroupHandler(env.groups, env.users, env.posts, env.notifier)
	env.post = NewPostHandler(env.posts, env.comments, env.groups, env.users, env.notifier)
	env.comment = NewCommentHandler(env.comments, env.posts, env.groups, env.users, env.notifier)
	env.message = NewMessageHandler(env.messages, env.users, nil, env.notifier)
	env.notification = NewNotificationHandler(env.notifications)
	env.search = NewSearchHandler(env.users, env.groups)
	env.analytics = NewAnalyticsHandler(env.users, env.groups, env.posts, env.comments)
	return env
}

// addUser seeds a user document.
func (env *testEnv) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	return env.users.put(&models.User{
		Username: username,
		Email:    username + "@example.com",
	})
}

// newContext builds an authenticated request context. A zero ObjectID
// leaves the request unauthenticated.
func (env *testEnv) newContext(method, target string, body interface{}, as primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if !as.IsZero() {
		c.Set("user", &models.JwtCustomClaims{UserID: as.Hex()})
	}
	return c, rec
}

// decodeEnvelope unmarshals the recorded response envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// dataMap returns the envelope data as a generic map.
func dataMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok, "envelope data is not an object")
	return data
}
