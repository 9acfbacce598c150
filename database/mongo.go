package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "users"
	PostsCollection         = "posts"
	SubscriptionsCollection = "push_subscriptions"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Connect dials MongoDB and pings it, retrying with exponential backoff.
func Connect(ctx context.Context, uri string, retries uint64) (*mongo.Client, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.Multiplier = 2

	var client *mongo.Client
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		c, err := mongo.Connect(attemptCtx, options.Client().ApplyURI(uri).
			SetRetryReads(true).
			SetRetryWrites(true))
		if err != nil {
			return err
		}
		if err := c.Ping(attemptCtx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	}

	notify := func(err error, next time.Duration) {
		logrus.WithError(err).
			WithField("next_attempt_in", next.Round(time.Millisecond).String()).
			Warn("MongoDB connection attempt failed")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, errors.Wrap(err, "connect to mongo")
	}

	logrus.Info("Connected to MongoDB")
	return client, nil
}

func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect mongo")
	}
	logrus.Info("Disconnected from MongoDB")
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, msg)
	default:
		return errors.Wrap(err, msg)
	}
}
