package handlers

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/models"
)

type userIndex map[primitive.ObjectID]models.User

func (h *Handler) loadUsers(ctx context.Context, ids []primitive.ObjectID) (userIndex, error) {
	users, err := h.users.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(users, func(u models.User) primitive.ObjectID { return u.ID }), nil
}

func (idx userIndex) summary(id primitive.ObjectID) models.UserSummary {
	if u, ok := idx[id]; ok {
		return u.Summary()
	}
	return models.UnknownUser(id)
}

// summaries keeps the order of ids and drops references to deleted users.
func (idx userIndex) summaries(ids []primitive.ObjectID) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := idx[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out
}

func (idx userIndex) comments(comments []models.Comment) []models.CommentView {
	return lo.Map(comments, func(cm models.Comment, _ int) models.CommentView {
		author := idx.summary(cm.UserID)
		return models.CommentView{
			ID:        cm.ID,
			User:      models.CommentAuthor{ID: author.ID, Username: author.Username},
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt,
		}
	})
}

func (idx userIndex) post(p models.Post) models.PostView {
	likes := p.Likes
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	return models.PostView{
		ID:        p.ID,
		User:      idx.summary(p.UserID),
		Caption:   p.Caption,
		Title:     p.Title,
		Audio:     p.Audio,
		MediaType: p.MediaType,
		MediaURL:  p.MediaURL,
		Likes:     likes,
		Comments:  idx.comments(p.Comments),
		CreatedAt: p.CreatedAt,
	}
}

func commentAuthors(comments []models.Comment) []primitive.ObjectID {
	return lo.Map(comments, func(cm models.Comment, _ int) primitive.ObjectID { return cm.UserID })
}

// populatePosts resolves owners and comment authors with one user query.
func (h *Handler) populatePosts(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	ids := lo.FlatMap(posts, func(p models.Post, _ int) []primitive.ObjectID {
		return append([]primitive.ObjectID{p.UserID}, commentAuthors(p.Comments)...)
	})
	idx, err := h.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(posts, func(p models.Post, _ int) models.PostView { return idx.post(p) }), nil
}

func (h *Handler) populateComments(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	idx, err := h.loadUsers(ctx, commentAuthors(comments))
	if err != nil {
		return nil, err
	}
	return idx.comments(comments), nil
}
