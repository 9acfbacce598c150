package media

import (
	"context"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"reelbook/models"
)

var ErrUnconfigured = errors.New("media uploads are not configured")

// CloudinaryUploader stores post media on Cloudinary. A zero CLOUDINARY_URL
// leaves it unconfigured and every upload fails with ErrUnconfigured.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(url, folder string) (*CloudinaryUploader, error) {
	if url == "" {
		logrus.Warn("CLOUDINARY_URL not set, media uploads disabled")
		return &CloudinaryUploader{folder: folder}, nil
	}

	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary configuration")
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// Upload sends file to Cloudinary and returns its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, kind models.MediaType) (string, error) {
	if u.cld == nil {
		return "", ErrUnconfigured
	}

	params := uploader.UploadParams{
		Folder:       u.folder + "/" + string(kind) + "s",
		ResourceType: string(kind),
	}
	if kind == models.MediaImage {
		params.Transformation = "c_limit,w_1080,h_1350,q_auto"
	}

	res, err := u.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return "", errors.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// DetectMediaType maps a MIME type onto the post media kinds.
func DetectMediaType(contentType string) (models.MediaType, bool) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MediaImage, true
	case strings.HasPrefix(contentType, "video/"):
		return models.MediaVideo, true
	default:
		return "", false
	}
}
