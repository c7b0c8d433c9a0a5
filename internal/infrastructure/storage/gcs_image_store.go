package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

const imagePrefix = "avatars"

// GCSImageStore uploads profile images into a bucket under avatars/.
type GCSImageStore struct {
	client *storage.Client
	bucket string
}

func NewGCSImageStore(client *storage.Client, bucket string) *GCSImageStore {
	return &GCSImageStore{client: client, bucket: bucket}
}

var _ repository.ImageStore = (*GCSImageStore)(nil)

func (s *GCSImageStore) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	url, err := helpers.UploadObject(ctx, s.client, s.bucket, ObjectPath(filename, contentType), contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// ObjectPath names an uploaded image. The client filename only contributes its extension.
func ObjectPath(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if ext == "" || len(ext) > 6 {
		ext = extFor(contentType)
	}
	return imagePrefix + "/" + uuid.NewString() + ext
}

func extFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
