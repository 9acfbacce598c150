package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/database"
	"reelbook/models"
)

type memorySubs struct {
	subs    map[primitive.ObjectID]models.PushSubscription
	deleted []primitive.ObjectID
}

func newMemorySubs() *memorySubs {
	return &memorySubs{subs: map[primitive.ObjectID]models.PushSubscription{}}
}

func (m *memorySubs) Upsert(_ context.Context, sub models.PushSubscription) error {
	m.subs[sub.UserID] = sub
	return nil
}

func (m *memorySubs) FindByUser(_ context.Context, userID primitive.ObjectID) (models.PushSubscription, error) {
	sub, ok := m.subs[userID]
	if !ok {
		return models.PushSubscription{}, database.ErrNotFound
	}
	return sub, nil
}

func (m *memorySubs) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	delete(m.subs, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func TestNewPushNotifierGeneratesKeys(t *testing.T) {
	n, err := NewPushNotifier(newMemorySubs(), "", "", "mailto:test@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, n.PublicKey())
	assert.NotEmpty(t, n.privateKey)
}

func TestDeliver(t *testing.T) {
	userID := primitive.NewObjectID()
	sub := webpush.Subscription{Endpoint: "https://push.example/abc", Keys: webpush.Keys{P256dh: "p", Auth: "a"}}

	t.Run("no subscription", func(t *testing.T) {
		n, err := NewPushNotifier(newMemorySubs(), "pub", "priv", "mailto:test@example.com")
		require.NoError(t, err)
		n.send = func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			t.Fatal("send must not be called without a subscription")
			return nil, nil
		}

		assert.NoError(t, n.deliver(context.Background(), userID, models.Notification{Title: "hi"}))
	})

	t.Run("sends payload", func(t *testing.T) {
		subs := newMemorySubs()
		n, err := NewPushNotifier(subs, "pub", "priv", "mailto:test@example.com")
		require.NoError(t, err)
		require.NoError(t, n.Subscribe(context.Background(), userID, sub))

		var got models.Notification
		var gotOpts *webpush.Options
		n.send = func(payload []byte, s *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
			assert.Equal(t, sub.Endpoint, s.Endpoint)
			gotOpts = opts
			require.NoError(t, json.Unmarshal(payload, &got))
			return response(http.StatusCreated), nil
		}

		require.NoError(t, n.deliver(context.Background(), userID, models.Notification{Title: "New follower", Body: "bob followed you"}))
		assert.Equal(t, "New follower", got.Title)
		assert.Equal(t, "priv", gotOpts.VAPIDPrivateKey)
		assert.Equal(t, "pub", gotOpts.VAPIDPublicKey)
	})

	t.Run("expired subscription is deleted", func(t *testing.T) {
		subs := newMemorySubs()
		n, err := NewPushNotifier(subs, "pub", "priv", "mailto:test@example.com")
		require.NoError(t, err)
		require.NoError(t, n.Subscribe(context.Background(), userID, sub))
		n.send = func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return response(http.StatusGone), nil
		}

		require.NoError(t, n.deliver(context.Background(), userID, models.Notification{Title: "hi"}))
		assert.Equal(t, []primitive.ObjectID{userID}, subs.deleted)
	})
}
