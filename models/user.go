package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`

	// Profile fields
	FullName       string `bson:"fullName" json:"fullName"`
	Bio            string `bson:"bio" json:"bio"`
	ProfilePicture string `bson:"profilePicture" json:"profilePicture"`

	// Follow graph and owned posts, stored as reference lists
	Followers []primitive.ObjectID `bson:"followers" json:"followers"`
	Following []primitive.ObjectID `bson:"following" json:"following"`
	Posts     []primitive.ObjectID `bson:"posts" json:"posts"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewUser returns a user with every reference list initialised so the
// stored document never carries null arrays.
func NewUser(username, email, passwordHash, fullName string) User {
	now := time.Now().UTC()
	return User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Followers:    []primitive.ObjectID{},
		Following:    []primitive.ObjectID{},
		Posts:        []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ProfileUpdate carries the user fields that may be changed through the
// profile endpoints. Nil means unchanged.
type ProfileUpdate struct {
	Username       *string
	FullName       *string
	Bio            *string
	ProfilePicture *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.FullName == nil && u.Bio == nil && u.ProfilePicture == nil
}
