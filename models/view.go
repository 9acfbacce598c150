package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Response shapes. Documents are stored with bare references; these views
// carry the populated form the client renders.

type UserSummary struct {
	ID             primitive.ObjectID `json:"_id"`
	Username       string             `json:"username"`
	FullName       string             `json:"fullName,omitempty"`
	ProfilePicture string             `json:"profilePicture"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// UnknownUser stands in for a reference whose document no longer exists.
func UnknownUser(id primitive.ObjectID) UserSummary {
	return UserSummary{ID: id, Username: "deleted"}
}

type CommentAuthor struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"_id"`
	User      CommentAuthor      `json:"user"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
}

type PostView struct {
	ID        primitive.ObjectID   `json:"_id"`
	User      UserSummary          `json:"user"`
	Caption   string               `json:"caption"`
	Title     string               `json:"title,omitempty"`
	Audio     string               `json:"audio,omitempty"`
	MediaType MediaType            `json:"mediaType"`
	MediaURL  string               `json:"mediaUrl"`
	Likes     []primitive.ObjectID `json:"likes"`
	Comments  []CommentView        `json:"comments"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ProfileView is the public profile. It leaves out the email address,
// which only the owner sees through /auth/me.
type ProfileView struct {
	ID             primitive.ObjectID `json:"_id"`
	Username       string             `json:"username"`
	FullName       string             `json:"fullName"`
	Bio            string             `json:"bio"`
	ProfilePicture string             `json:"profilePicture"`
	Followers      []UserSummary      `json:"followers"`
	Following      []UserSummary      `json:"following"`
	Posts          []Post             `json:"posts"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type AuthResponse struct {
	ID             primitive.ObjectID `json:"_id"`
	Username       string             `json:"username"`
	Email          string             `json:"email"`
	FullName       string             `json:"fullName"`
	Bio            string             `json:"bio"`
	ProfilePicture string             `json:"profilePicture"`
	Token          string             `json:"token"`
}

func NewAuthResponse(u User, token string) AuthResponse {
	return AuthResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Token:          token,
	}
}
