package handlers_test

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"reelbook/database"
	"reelbook/models"
)

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	follower := models.NewUser("bob", "bob@example.com", "hash", "Bob")
	user := models.NewUser("alice", "alice@example.com", "hash", "Alice")
	user.Followers = []primitive.ObjectID{follower.ID, primitive.NewObjectID()}
	post := models.Post{ID: primitive.NewObjectID(), UserID: user.ID, MediaType: models.MediaImage, MediaURL: "https://cdn/x.jpg"}

	f.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(user, nil)
	f.users.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return([]models.User{follower}, nil)
	f.posts.EXPECT().List(gomock.Any(), models.PostFilter{Authors: []primitive.ObjectID{user.ID}}).Return([]models.Post{post}, nil)

	w := f.anonymous(http.MethodGet, "/api/users/profile/alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.NotContains(t, decode[map[string]any](t, w), "email")

	got := decode[models.ProfileView](t, w)
	assert.Equal(t, "alice", got.Username)
	require.Len(t, got.Followers, 1, "deleted followers are dropped")
	assert.Equal(t, "bob", got.Followers[0].Username)
	assert.Empty(t, got.Following)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, post.ID, got.Posts[0].ID)
}

func TestGetProfileUnknown(t *testing.T) {
	f := newFixture(t)
	f.users.EXPECT().FindByUsername(gomock.Any(), "ghost").Return(models.User{}, database.ErrNotFound)

	w := f.anonymous(http.MethodGet, "/api/users/profile/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", messageOf(t, w))
}

func TestUpdateProfile(t *testing.T) {
	t.Run("empty update", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPut, "/api/users/profile", map[string]string{"password": "ignored"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("applies whitelisted fields", func(t *testing.T) {
		f := newFixture(t)
		bio := "hello"
		updated := models.NewUser("alice", "alice@example.com", "hash", "Alice")
		updated.Bio = bio
		f.users.EXPECT().UpdateProfile(gomock.Any(), f.me, models.ProfileUpdate{Bio: &bio}).Return(updated, nil)

		w := f.do(http.MethodPut, "/api/users/profile", map[string]string{"bio": "hello", "password": "ignored"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "hello", decode[map[string]any](t, w)["bio"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().UpdateProfile(gomock.Any(), f.me, gomock.Any()).Return(models.User{}, errors.Wrap(database.ErrDuplicate, "update profile"))

		w := f.do(http.MethodPut, "/api/users/profile", map[string]string{"username": "taken"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("picture is required", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPut, "/api/users/profile/picture", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFollow(t *testing.T) {
	target := primitive.NewObjectID()

	t.Run("self", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPut, "/api/users/follow/"+f.me.Hex(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "You cannot follow yourself", messageOf(t, w))
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPut, "/api/users/follow/nope", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("notifies target", func(t *testing.T) {
		f := newFixture(t)
		me := models.NewUser("alice", "alice@example.com", "hash", "Alice")
		f.users.EXPECT().Follow(gomock.Any(), f.me, target).Return(nil)
		f.users.EXPECT().FindByID(gomock.Any(), f.me).Return(me, nil)
		f.notifier.EXPECT().Notify(target, models.Notification{
			Title: "New follower",
			Body:  "alice started following you",
			URL:   "/profile",
		})

		w := f.do(http.MethodPut, "/api/users/follow/"+target.Hex(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already following", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Follow(gomock.Any(), f.me, target).Return(database.ErrAlreadyFollowing)

		w := f.do(http.MethodPut, "/api/users/follow/"+target.Hex(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Follow(gomock.Any(), f.me, target).Return(database.ErrNotFound)

		w := f.do(http.MethodPut, "/api/users/follow/"+target.Hex(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unfollow when not following", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Unfollow(gomock.Any(), f.me, target).Return(database.ErrNotFollowing)

		w := f.do(http.MethodPut, "/api/users/unfollow/"+target.Hex(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unfollow sends nothing", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Unfollow(gomock.Any(), f.me, target).Return(nil)

		w := f.do(http.MethodPut, "/api/users/unfollow/"+target.Hex(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSearchUsers(t *testing.T) {
	t.Run("query required", func(t *testing.T) {
		f := newFixture(t)
		w := f.anonymous(http.MethodGet, "/api/users/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("closest usernames first", func(t *testing.T) {
		f := newFixture(t)
		users := []models.User{
			{ID: primitive.NewObjectID(), Username: "bob", FullName: "Alice Bobson"},
			{ID: primitive.NewObjectID(), Username: "xalicex"},
			{ID: primitive.NewObjectID(), Username: "alice"},
		}
		f.users.EXPECT().Search(gomock.Any(), "alice", int64(20)).Return(users, nil)

		w := f.anonymous(http.MethodGet, "/api/users/search?query=alice", nil)
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[[]models.UserSummary](t, w)
		require.Len(t, got, 3)
		assert.Equal(t, "alice", got[0].Username)
		assert.Equal(t, "xalicex", got[1].Username)
		assert.Equal(t, "bob", got[2].Username)
		assert.Equal(t, "Alice Bobson", got[2].FullName)
	})
}
