package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/database"
	"reelbook/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type CreatePostRequest struct {
	Caption   string           `json:"caption" binding:"max=2200"`
	MediaType models.MediaType `json:"mediaType" binding:"required,oneof=image video"`
	MediaURL  string           `json:"mediaUrl" binding:"required"`
	Title     string           `json:"title" binding:"max=200"`
	Audio     string           `json:"audio" binding:"max=200"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

type PageQuery struct {
	Limit     int64 `form:"limit" binding:"omitempty,min=1"`
	Skip      int64 `form:"skip" binding:"omitempty,min=0"`
	Following bool  `form:"following"`
}

func (q PageQuery) filter() models.PostFilter {
	limit := q.Limit
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return models.PostFilter{Limit: limit, Skip: q.Skip}
}

func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Media type and media URL are required", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post := models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Caption:   req.Caption,
		Title:     req.Title,
		Audio:     req.Audio,
		MediaType: req.MediaType,
		MediaURL:  req.MediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.posts.Create(ctx, &post); err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	if err := h.users.AddPost(ctx, userID, post.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Feed lists posts newest first. With following=true only the caller's own
// posts and those of the users they follow are included.
func (h *Handler) Feed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := q.filter()
	if q.Following {
		me, err := h.users.FindByID(ctx, userID)
		if err != nil {
			storeError(c, err, "User not found")
			return
		}
		filter.Authors = append([]primitive.ObjectID{me.ID}, me.Following...)
	}

	h.listPosts(c, filter)
}

func (h *Handler) UserPosts(c *gin.Context) {
	authorID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	h.listPosts(c, models.PostFilter{Authors: []primitive.ObjectID{authorID}})
}

// Reels lists video posts with the same paging as the feed.
func (h *Handler) Reels(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}

	filter := q.filter()
	filter.MediaType = models.MediaVideo
	h.listPosts(c, filter)
}

func (h *Handler) listPosts(c *gin.Context, filter models.PostFilter) {
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.posts.List(ctx, filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	views, err := h.populatePosts(ctx, posts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.FindByID(ctx, postID)
	if err != nil {
		storeError(c, err, "Post not found")
		return
	}
	views, err := h.populatePosts(ctx, []models.Post{post})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	c.JSON(http.StatusOK, views[0])
}

// LikePost toggles the caller's like. It serves both posts and reels.
func (h *Handler) LikePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, liked, err := h.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		storeError(c, err, "Post not found")
		return
	}

	message := "Unliked"
	if liked {
		message = "Liked"
		h.notifyFrom(ctx, userID, post.UserID, "New like", "%s liked your post", "/post/"+postID.Hex())
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"liked":   liked,
		"likes":   post.Likes,
	})
}

// CommentPost appends a comment and returns the post's populated comments.
func (h *Handler) CommentPost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		respondError(c, http.StatusBadRequest, "Comment text is required", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.AddComment(ctx, postID, models.NewComment(userID, strings.TrimSpace(req.Text)))
	if err != nil {
		storeError(c, err, "Post not found")
		return
	}

	comments, err := h.populateComments(ctx, post.Comments)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	h.notifyFrom(ctx, userID, post.UserID, "New comment", "%s commented on your post", "/post/"+postID.Hex())
	c.JSON(http.StatusOK, comments)
}

// DeletePost removes the caller's own post and its reference on the owner.
func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.FindByID(ctx, postID)
	if err != nil {
		storeError(c, err, "Post not found")
		return
	}
	if post.UserID != userID {
		respondError(c, http.StatusForbidden, "Not authorized to delete this post", nil)
		return
	}

	if err := h.users.RemovePost(ctx, post.UserID, post.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	if err := h.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Post not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}
