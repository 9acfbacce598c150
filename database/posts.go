package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelbook/models"
)

type PostStore struct {
	Collection *mongo.Collection
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{Collection: db.Collection(PostsCollection)}
}

func (s *PostStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_index"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_at_index"),
		},
		{
			Keys:    bson.D{{Key: "mediaType", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("media_type_created_at_index"),
		},
	}
	_, err := s.Collection.Indexes().CreateMany(ctx, indexes)
	return errors.Wrap(err, "create post indexes")
}

func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := s.Collection.InsertOne(ctx, post)
	return translate(err, "insert post")
}

func (s *PostStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var post models.Post
	if err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return models.Post{}, translate(err, "find post")
	}
	return post, nil
}

// List returns posts matching filter, newest first.
func (s *PostStore) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := bson.M{}
	if filter.Authors != nil {
		query["user"] = bson.M{"$in": filter.Authors}
	}
	if filter.MediaType != "" {
		query["mediaType"] = filter.MediaType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}

	cursor, err := s.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

// ToggleLike adds userID to the post's likes, or removes it when already
// present, in a single pipeline update. The returned post carries only its
// owner and likes.
func (s *PostStore) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (models.Post, bool, error) {
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}
	toggle := bson.D{{Key: "$cond", Value: bson.D{
		{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{userID, likes}}}},
		{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: likes},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", userID}}}},
		}}}},
		{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{userID}}}}},
	}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: toggle}}}},
	}

	var post models.Post
	err := s.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		pipeline,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"user": 1, "likes": 1}),
	).Decode(&post)
	if err != nil {
		return models.Post{}, false, translate(err, "toggle like")
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	return post, lo.Contains(post.Likes, userID), nil
}

// AddComment appends comment and returns the post's owner and full comment list.
func (s *PostStore) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (models.Post, error) {
	var post models.Post
	err := s.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"user": 1, "comments": 1}),
	).Decode(&post)
	if err != nil {
		return models.Post{}, translate(err, "add comment")
	}
	return post, nil
}

func (s *PostStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
