package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelbook/models"
)

var (
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

type UserStore struct {
	Collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{Collection: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique email and username indexes.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	}
	_, err := s.Collection.Indexes().CreateMany(ctx, indexes)
	return errors.Wrap(err, "create user indexes")
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.Collection.InsertOne(ctx, user)
	return translate(err, "insert user")
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := s.Collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return models.User{}, translate(err, "find user")
	}
	return user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// FindByIDs returns the users found among ids, in no particular order.
func (s *UserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of update and returns the stored user.
func (s *UserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.ProfilePicture != nil {
		set["profilePicture"] = *update.ProfilePicture
	}

	var user models.User
	err := s.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return models.User{}, translate(err, "update profile")
	}
	return user, nil
}

// Follow records userID as a follower of targetID on both documents.
func (s *UserStore) Follow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	res, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": targetID, "followers": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"followers": userID}},
	)
	if err != nil {
		return errors.Wrap(err, "add follower")
	}
	if res.MatchedCount == 0 {
		return s.missingOr(ctx, targetID, ErrAlreadyFollowing)
	}

	_, err = s.Collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"following": targetID}},
	)
	return errors.Wrap(err, "add following")
}

// Unfollow removes the relation recorded by Follow.
func (s *UserStore) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	res, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": targetID, "followers": userID},
		bson.M{"$pull": bson.M{"followers": userID}},
	)
	if err != nil {
		return errors.Wrap(err, "remove follower")
	}
	if res.MatchedCount == 0 {
		return s.missingOr(ctx, targetID, ErrNotFollowing)
	}

	_, err = s.Collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"following": targetID}},
	)
	return errors.Wrap(err, "remove following")
}

// missingOr reports ErrNotFound when id does not exist, otherwise fallback.
func (s *UserStore) missingOr(ctx context.Context, id primitive.ObjectID, fallback error) error {
	count, err := s.Collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "count users")
	}
	if count == 0 {
		return ErrNotFound
	}
	return fallback
}

func (s *UserStore) AddPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"posts": postID}},
	)
	return errors.Wrap(err, "add post reference")
}

func (s *UserStore) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"posts": postID}},
	)
	return errors.Wrap(err, "remove post reference")
}

// Search matches query as a case-insensitive substring of username or full name.
func (s *UserStore) Search(ctx context.Context, query string, limit int64) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"fullName": pattern},
	}}
	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{"username": 1, "fullName": 1, "profilePicture": 1})

	cursor, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return users, nil
}
