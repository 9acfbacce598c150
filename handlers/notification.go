package handlers

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
)

func (h *Handler) VapidPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.notifier.PublicKey()})
}

// Subscribe stores the browser's push subscription, replacing any earlier one.
func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var sub webpush.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		respondError(c, http.StatusBadRequest, "Invalid subscription", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.notifier.Subscribe(ctx, userID, sub); err != nil {
		respondError(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
}
