package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/database"
	"reelbook/middleware"
)

const (
	requestTimeout = 10 * time.Second
	uploadTimeout  = 30 * time.Second
)

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes {"message": msg}. The cause is logged and, for server
// errors, attached to the gin context for the Sentry middleware.
func respondError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		entry := logrus.WithError(err).WithFields(logrus.Fields{
			"handler": c.HandlerName(),
			"route":   c.FullPath(),
			"status":  status,
		})
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
			entry.Error(msg)
		} else {
			entry.Debug(msg)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// storeError maps the database sentinels onto HTTP statuses.
func storeError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(c, http.StatusNotFound, notFound, nil)
	case errors.Is(err, database.ErrDuplicate):
		respondError(c, http.StatusConflict, "Already exists", err)
	default:
		respondError(c, http.StatusInternalServerError, "Server error", err)
	}
}

func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Not authorized", err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid id", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
