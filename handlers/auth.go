package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"reelbook/auth"
	"reelbook/database"
	"reelbook/models"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid registration details", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user := models.NewUser(req.Username, strings.ToLower(strings.TrimSpace(req.Email)), hash, strings.TrimSpace(req.FullName))
	if err := h.users.Create(ctx, &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(c, http.StatusConflict, "User already exists", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	token, err := h.tokens.Issue(user.ID.Hex())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	c.JSON(http.StatusCreated, models.NewAuthResponse(user, token))
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.tokens.Issue(user.ID.Hex())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	c.JSON(http.StatusOK, models.NewAuthResponse(user, token))
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}
