package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelbook/models"
)

type SubscriptionStore struct {
	Collection *mongo.Collection
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{Collection: db.Collection(SubscriptionsCollection)}
}

func (s *SubscriptionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("user_id_unique").SetUnique(true),
	})
	return errors.Wrap(err, "create subscription indexes")
}

// Upsert replaces the user's subscription, creating it when missing.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub models.PushSubscription) error {
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{"userId": sub.UserID},
		bson.M{
			"$set": bson.M{
				"sub":       sub.Sub,
				"updatedAt": time.Now().UTC(),
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "upsert subscription")
}

func (s *SubscriptionStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (models.PushSubscription, error) {
	var sub models.PushSubscription
	if err := s.Collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub); err != nil {
		return models.PushSubscription{}, translate(err, "find subscription")
	}
	return sub, nil
}

func (s *SubscriptionStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.Collection.DeleteOne(ctx, bson.M{"userId": userID})
	return errors.Wrap(err, "delete subscription")
}
