package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/database"
	"reelbook/models"
)

const searchLimit = 20

type UpdateProfileRequest struct {
	Username       *string `json:"username" binding:"omitempty,username"`
	FullName       *string `json:"fullName" binding:"omitempty,max=100"`
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePicture *string `json:"profilePicture"`
}

type UpdatePictureRequest struct {
	ProfilePicture string `json:"profilePicture" binding:"required"`
}

// GetProfile returns a public profile with followers, following and posts resolved.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindByUsername(ctx, c.Param("username"))
	if err != nil {
		storeError(c, err, "User not found")
		return
	}

	idx, err := h.loadUsers(ctx, append(append([]primitive.ObjectID{}, user.Followers...), user.Following...))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	posts, err := h.posts.List(ctx, models.PostFilter{Authors: []primitive.ObjectID{user.ID}})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	c.JSON(http.StatusOK, models.ProfileView{
		ID:             user.ID,
		Username:       user.Username,
		FullName:       user.FullName,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		Followers:      idx.summaries(user.Followers),
		Following:      idx.summaries(user.Following),
		Posts:          posts,
		CreatedAt:      user.CreatedAt,
	})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid profile details", err)
		return
	}

	update := models.ProfileUpdate{
		Username:       req.Username,
		FullName:       req.FullName,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	}
	if update.Empty() {
		respondError(c, http.StatusBadRequest, "No valid fields to update", nil)
		return
	}

	h.applyProfileUpdate(c, userID, update)
}

func (h *Handler) UpdateProfilePicture(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdatePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Profile picture URL is required", err)
		return
	}

	h.applyProfileUpdate(c, userID, models.ProfileUpdate{ProfilePicture: &req.ProfilePicture})
}

func (h *Handler) applyProfileUpdate(c *gin.Context, userID primitive.ObjectID, update models.ProfileUpdate) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.UpdateProfile(ctx, userID, update)
	if errors.Is(err, database.ErrDuplicate) {
		respondError(c, http.StatusConflict, "Username already taken", err)
		return
	}
	if err != nil {
		storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Follow(c *gin.Context) {
	userID, targetID, ok := followTarget(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	switch err := h.users.Follow(ctx, userID, targetID); {
	case errors.Is(err, database.ErrAlreadyFollowing):
		respondError(c, http.StatusBadRequest, "Already following this user", nil)
		return
	case err != nil:
		storeError(c, err, "User not found")
		return
	}

	h.notifyFrom(ctx, userID, targetID, "New follower", "%s started following you", "/profile")
	c.JSON(http.StatusOK, gin.H{"message": "User followed"})
}

func (h *Handler) Unfollow(c *gin.Context) {
	userID, targetID, ok := followTarget(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	switch err := h.users.Unfollow(ctx, userID, targetID); {
	case errors.Is(err, database.ErrNotFollowing):
		respondError(c, http.StatusBadRequest, "You are not following this user", nil)
		return
	case err != nil:
		storeError(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unfollowed"})
}

func followTarget(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return userID, userID, false
	}
	targetID, ok := objectIDParam(c, "id")
	if !ok {
		return userID, targetID, false
	}
	if userID == targetID {
		respondError(c, http.StatusBadRequest, "You cannot follow yourself", nil)
		return userID, targetID, false
	}
	return userID, targetID, true
}

// SearchUsers matches the query against usernames and full names, closest
// usernames first.
func (h *Handler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		respondError(c, http.StatusBadRequest, "Search query is required", nil)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.users.Search(ctx, query, searchLimit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	results := lo.Map(rankByUsername(query, users), func(u models.User, _ int) models.UserSummary {
		s := u.Summary()
		s.FullName = u.FullName
		return s
	})
	c.JSON(http.StatusOK, results)
}

// rankByUsername orders users by fuzzy distance between query and username.
// Users matched only on full name keep their store order after the ranked ones.
func rankByUsername(query string, users []models.User) []models.User {
	names := lo.Map(users, func(u models.User, _ int) string { return u.Username })
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]models.User, 0, len(users))
	ranked := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		out = append(out, users[r.OriginalIndex])
		ranked[r.OriginalIndex] = true
	}
	for i, u := range users {
		if !ranked[i] {
			out = append(out, u)
		}
	}
	return out
}

// notifyFrom pushes a notification to target about something actor did.
// format receives the actor's username.
func (h *Handler) notifyFrom(ctx context.Context, actor, target primitive.ObjectID, title, format, url string) {
	if actor == target {
		return
	}
	name := "Someone"
	if u, err := h.users.FindByID(ctx, actor); err == nil {
		name = u.Username
	}
	h.notifier.Notify(target, models.Notification{
		Title: title,
		Body:  fmt.Sprintf(format, name),
		URL:   url,
	})
}
