package models

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription stores one browser push endpoint per user.
type PushSubscription struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `bson:"userId"`
	Sub       webpush.Subscription `bson:"sub"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}
