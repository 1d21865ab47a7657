package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/internal/models"
)

func TestSearchUsers(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	env.addUser(t, "alina")
	env.addUser(t, "bob")

	c, rec := env.newContext(http.MethodGet, "/api/search?q=ali&type=users", nil, alice.ID)
	require.NoError(t, env.search.Search(c))

	data := dataMap(t, rec)
	assert.Len(t, data["users"], 2)
}

func TestSearchGroups(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")
	require.NoError(t, env.groups.CreateGroup(context.Background(), &models.Group{Name: "Go Enthusiasts", Creator: alice.ID}))
	require.NoError(t, env.groups.CreateGroup(context.Background(), &models.Group{Name: "Chess Club", Creator: alice.ID}))

	c, rec := env.newContext(http.MethodGet, "/api/search?q=enthus&type=groups", nil, alice.ID)
	require.NoError(t, env.search.Search(c))

	data := dataMap(t, rec)
	assert.Len(t, data["groups"], 1)
}

func TestSearchQueryTooShort(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")

	c, _ := env.newContext(http.MethodGet, "/api/search?q=a", nil, alice.ID)
	err := env.search.Search(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSearchUnknownType(t *testing.T) {
	env := newTestEnv()
	alice := env.addUser(t, "alice")

	c, _ := env.newContext(http.MethodGet, "/api/search?q=ali&type=posts", nil, alice.ID)
	err := env.search.Search(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
