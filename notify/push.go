package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/database"
	"reelbook/models"
)

type SubscriptionStore interface {
	Upsert(ctx context.Context, sub models.PushSubscription) error
	FindByUser(ctx context.Context, userID primitive.ObjectID) (models.PushSubscription, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type sendFunc func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// PushNotifier delivers Web Push notifications to the single subscription
// each user may register.
type PushNotifier struct {
	subs       SubscriptionStore
	publicKey  string
	privateKey string
	subscriber string
	send       sendFunc
}

func NewPushNotifier(subs SubscriptionStore, publicKey, privateKey, subscriber string) (*PushNotifier, error) {
	if publicKey == "" || privateKey == "" {
		var err error
		privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
		if err != nil {
			return nil, errors.Wrap(err, "generate VAPID keys")
		}
		logrus.WithField("VAPID_PUBLIC_KEY", publicKey).
			Warn("Generated ephemeral VAPID keys, run `reelbook vapid` and set them in the environment")
	}

	return &PushNotifier{
		subs:       subs,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		send:       webpush.SendNotification,
	}, nil
}

func (n *PushNotifier) PublicKey() string {
	return n.publicKey
}

func (n *PushNotifier) Subscribe(ctx context.Context, userID primitive.ObjectID, sub webpush.Subscription) error {
	return n.subs.Upsert(ctx, models.PushSubscription{UserID: userID, Sub: sub})
}

// Notify sends msg to userID in the background. Delivery failures are logged.
func (n *PushNotifier) Notify(userID primitive.ObjectID, msg models.Notification) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("Panic in push notification")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := n.deliver(ctx, userID, msg); err != nil {
			logrus.WithError(err).WithField("user", userID.Hex()).Warn("Push notification failed")
		}
	}()
}

func (n *PushNotifier) deliver(ctx context.Context, userID primitive.ObjectID, msg models.Notification) error {
	sub, err := n.subs.FindByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal push payload")
	}

	resp, err := n.send(payload, &sub.Sub, &webpush.Options{
		Subscriber:      n.subscriber,
		VAPIDPublicKey:  n.publicKey,
		VAPIDPrivateKey: n.privateKey,
		TTL:             30,
	})
	if err != nil {
		return errors.Wrap(err, "send push")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		logrus.WithField("user", userID.Hex()).Info("Push subscription expired, deleting")
		return n.subs.DeleteByUser(ctx, userID)
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("push service responded %d", resp.StatusCode)
	}
	return nil
}
