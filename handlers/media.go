package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"reelbook/media"
)

// UploadMedia stores the multipart "file" part and returns its public URL,
// ready to be used as a post's mediaUrl or a profile picture.
func (h *Handler) UploadMedia(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded", err)
		return
	}

	kind, ok := media.DetectMediaType(header.Header.Get("Content-Type"))
	if !ok {
		respondError(c, http.StatusBadRequest, "Only image and video uploads are supported", nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read uploaded file", err)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	url, err := h.media.Upload(ctx, file, kind)
	if errors.Is(err, media.ErrUnconfigured) {
		respondError(c, http.StatusServiceUnavailable, "Media uploads are not available", err)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Upload failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "mediaType": kind})
}
