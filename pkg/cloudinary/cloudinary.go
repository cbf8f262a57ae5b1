package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client wraps Cloudinary uploads for post images, avatars and chat media.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

// Delivery transformations applied eagerly at upload time.
const (
	imageEager = "q_auto,f_auto,w_1080,c_limit"
	thumbWidth = 200
)

var eagerAsyncFalse = false

// BuildThumbnailURL returns a Cloudinary URL resized for list views.
func BuildThumbnailURL(cloudName, publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, thumbWidth, publicID)
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	url := result.SecureURL
	thumbnailURL := ""
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = BuildThumbnailURL(c.cloudName, result.PublicID)
	}
	return url, thumbnailURL, nil
}

// publicIDFromURL recovers the public ID (folder/name, no extension) from a
// delivery URL. Handles optional version and transformation path segments.
func publicIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(parts) {
		return ""
	}
	rest := parts[idx+1:]
	for len(rest) > 1 && (isVersionSegment(rest[0]) || strings.Contains(rest[0], ",")) {
		rest = rest[1:]
	}
	id := strings.Join(rest, "/")
	if dot := strings.LastIndex(id, "."); dot > 0 {
		id = id[:dot]
	}
	return id
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeleteByURL destroys the asset behind a delivery URL.
func (c *clientImpl) DeleteByURL(ctx context.Context, rawURL string) error {
	publicID := publicIDFromURL(rawURL)
	if publicID == "" {
		return fmt.Errorf("no public id in url %q", rawURL)
	}
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// NewClientFromParams builds a Client from cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}
