package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reelbook/auth"
)

const userIDKey = "userId"

var ErrNoUser = errors.New("no authenticated user")

type TokenParser interface {
	Parse(token string) (string, error)
}

// JWTAuth rejects requests without a valid token and stores the caller's id
// in the context. The Authorization header may carry "Bearer <jwt>" or the
// bare token; a ?token= query parameter is accepted as a fallback.
func JWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			header = c.Query("token")
		}
		token := auth.ExtractToken(header)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No authorization token provided"})
			return
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			logrus.WithError(err).WithField("path", c.Request.URL.Path).Debug("JWT validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}
		if _, err := primitive.ObjectIDFromHex(userID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the id stored by JWTAuth.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.GetString(userIDKey))
	if err != nil {
		return primitive.NilObjectID, ErrNoUser
	}
	return id, nil
}
