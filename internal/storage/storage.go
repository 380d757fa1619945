// Package storage stores uploaded inspection photos and signatures on local disk or GCS.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidURL is returned by Delete for URLs that do not belong to the store.
var ErrInvalidURL = errors.New("url does not belong to this store")

// FileStore 上传文件存储
type FileStore interface {
	// Save writes data under key and returns its public URL.
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes the object behind a URL returned by Save. Missing objects are not an error.
	Delete(ctx context.Context, url string) error
}

// NewObjectKey returns "<prefix>/<uuid><ext>".
func NewObjectKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

// ThumbnailKey derives the thumbnail object key for an original key.
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb.jpg"
}

// ExtensionFor maps an allowed image content type to a file extension.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// keyFromURL strips baseURL from url and rejects traversal.
func keyFromURL(baseURL, url string) (string, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, baseURL) {
		return "", ErrInvalidURL
	}
	key := strings.TrimPrefix(url, baseURL)
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidURL
	}
	return key, nil
}
