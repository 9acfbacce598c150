package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (m MediaType) Valid() bool {
	return m == MediaImage || m == MediaVideo
}

// Post is a published image or video. A reel is a post whose media type is video.
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID   `bson:"user" json:"user"`
	Caption   string               `bson:"caption" json:"caption"`
	Title     string               `bson:"title,omitempty" json:"title,omitempty"`
	Audio     string               `bson:"audio,omitempty" json:"audio,omitempty"`
	MediaType MediaType            `bson:"mediaType" json:"mediaType"`
	MediaURL  string               `bson:"mediaUrl" json:"mediaUrl"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func NewComment(userID primitive.ObjectID, text string) Comment {
	return Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// PostFilter selects posts for listing endpoints. Zero values mean no restriction.
type PostFilter struct {
	Authors   []primitive.ObjectID
	MediaType MediaType
	Limit     int64
	Skip      int64
}
