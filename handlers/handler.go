package handlers

import (
	"context"
	"io"
	"regexp"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/models"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks reelbook/handlers UserStore,PostStore,TokenIssuer,MediaUploader,Notifier

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (models.User, error)
	Follow(ctx context.Context, userID, targetID primitive.ObjectID) error
	Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error
	AddPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error
	Search(ctx context.Context, query string, limit int64) ([]models.User, error)
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (models.Post, bool, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type MediaUploader interface {
	Upload(ctx context.Context, file io.Reader, kind models.MediaType) (string, error)
}

type Notifier interface {
	PublicKey() string
	Subscribe(ctx context.Context, userID primitive.ObjectID, sub webpush.Subscription) error
	Notify(userID primitive.ObjectID, msg models.Notification)
}

// Handler serves the JSON API on top of the stores and outbound services.
type Handler struct {
	users    UserStore
	posts    PostStore
	tokens   TokenIssuer
	media    MediaUploader
	notifier Notifier
}

func New(users UserStore, posts PostStore, tokens TokenIssuer, media MediaUploader, notifier Notifier) *Handler {
	registerValidators()
	return &Handler{
		users:    users,
		posts:    posts,
		tokens:   tokens,
		media:    media,
		notifier: notifier,
	}
}

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)
	validatorsOnce  sync.Once
)

func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
				return usernamePattern.MatchString(fl.Field().String())
			})
		}
	})
}
