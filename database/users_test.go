package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"reelbook/models"
)

const usersNS = "reelbook.users"

func TestUserStoreCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := models.NewUser("alice", "alice@example.com", "hash", "Alice")
		require.NoError(mt, store.Create(context.Background(), &user))
		assert.False(mt, user.ID.IsZero())
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		user := models.NewUser("alice", "alice@example.com", "hash", "Alice")
		err := store.Create(context.Background(), &user)
		assert.True(mt, errors.Is(err, ErrDuplicate))
	})
}

func TestUserStoreFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
		}))

		user, err := store.FindByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "alice@example.com", user.Email)
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		_, err := store.FindByEmail(context.Background(), "nobody@example.com")
		assert.Equal(mt, ErrNotFound, err)
	})

	mt.Run("by ids skips query when empty", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}

		users, err := store.FindByIDs(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, users)
	})
}

func TestUserStoreFollow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	me, target := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("success", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		assert.NoError(mt, store.Follow(context.Background(), me, target))
	})

	mt.Run("already following", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
		)

		assert.Equal(mt, ErrAlreadyFollowing, store.Follow(context.Background(), me, target))
	})

	mt.Run("unknown target", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch),
		)

		assert.Equal(mt, ErrNotFound, store.Follow(context.Background(), me, target))
	})

	mt.Run("unfollow when not following", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
		)

		assert.Equal(mt, ErrNotFollowing, store.Unfollow(context.Background(), me, target))
	})
}

func TestUserStoreUpdateProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated document", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "bio", Value: "hello"},
		}}))

		bio := "hello"
		user, err := store.UpdateProfile(context.Background(), id, models.ProfileUpdate{Bio: &bio})
		require.NoError(mt, err)
		assert.Equal(mt, "hello", user.Bio)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		bio := "hello"
		_, err := store.UpdateProfile(context.Background(), primitive.NewObjectID(), models.ProfileUpdate{Bio: &bio})
		assert.Equal(mt, ErrNotFound, err)
	})
}

func TestUserStoreSearch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("escapes regex metacharacters", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "username", Value: "a.b*"},
		}))

		users, err := store.Search(context.Background(), "a.b*", 20)
		require.NoError(mt, err)
		require.Len(mt, users, 1)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		pattern, options := evt.Command.Lookup("filter", "$or", "0", "username").Regex()
		assert.Equal(mt, `a\.b\*`, pattern)
		assert.Equal(mt, "i", options)
		assert.Equal(mt, int64(20), evt.Command.Lookup("limit").AsInt64())
	})
}

func TestUserStoreFollowUpdates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	me, target := primitive.NewObjectID(), primitive.NewObjectID()
	updated := func() bson.D {
		return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1})
	}

	mt.Run("follow guards against duplicates", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(updated(), updated())
		require.NoError(mt, store.Follow(context.Background(), me, target))

		followers := mt.GetStartedEvent().Command
		id, ok := followers.Lookup("updates", "0", "q", "_id").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, target, id)
		id, ok = followers.Lookup("updates", "0", "q", "followers", "$ne").ObjectIDOK()
		require.True(mt, ok, "follower filter must exclude existing followers")
		assert.Equal(mt, me, id)
		id, ok = followers.Lookup("updates", "0", "u", "$addToSet", "followers").ObjectIDOK()
		require.True(mt, ok, "followers must be added as a set")
		assert.Equal(mt, me, id)

		following := mt.GetStartedEvent().Command
		id, ok = following.Lookup("updates", "0", "q", "_id").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, me, id)
		id, ok = following.Lookup("updates", "0", "u", "$addToSet", "following").ObjectIDOK()
		require.True(mt, ok, "following must be added as a set")
		assert.Equal(mt, target, id)
	})

	mt.Run("unfollow pulls both references", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(updated(), updated())
		require.NoError(mt, store.Unfollow(context.Background(), me, target))

		followers := mt.GetStartedEvent().Command
		id, ok := followers.Lookup("updates", "0", "q", "followers").ObjectIDOK()
		require.True(mt, ok, "only matches when currently following")
		assert.Equal(mt, me, id)
		id, ok = followers.Lookup("updates", "0", "u", "$pull", "followers").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, me, id)

		following := mt.GetStartedEvent().Command
		id, ok = following.Lookup("updates", "0", "u", "$pull", "following").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, target, id)
	})
}

func TestUserStorePostReferences(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	owner, postID := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("add", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, store.AddPost(context.Background(), owner, postID))

		cmd := mt.GetStartedEvent().Command
		id, ok := cmd.Lookup("updates", "0", "q", "_id").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, owner, id)
		id, ok = cmd.Lookup("updates", "0", "u", "$push", "posts").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, postID, id)
	})

	mt.Run("remove", func(mt *mtest.T) {
		store := &UserStore{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(mt, store.RemovePost(context.Background(), owner, postID))

		cmd := mt.GetStartedEvent().Command
		id, ok := cmd.Lookup("updates", "0", "q", "_id").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, owner, id)
		id, ok = cmd.Lookup("updates", "0", "u", "$pull", "posts").ObjectIDOK()
		require.True(mt, ok, "the post id must be pulled from the owner's posts")
		assert.Equal(mt, postID, id)
	})
}
