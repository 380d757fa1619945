package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxImageSize 单张图片上限 10MB
const MaxImageSize int64 = 10 * 1024 * 1024

// ThumbnailWidth in pixels; height keeps the aspect ratio.
const ThumbnailWidth = 400

var (
	ErrUnsupportedImage = errors.New("Only JPEG, PNG and WebP images are allowed")
	ErrImageTooLarge    = errors.New("File size must be less than 10MB")
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ContentType normalizes a declared content type, sniffing data when the declaration
// is missing or generic.
func ContentType(declared string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	return ct
}

// ValidateImage checks the declared content type and size of an upload.
func ValidateImage(contentType string, size int64) error {
	if !imageTypes[contentType] {
		return ErrUnsupportedImage
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// Thumbnail decodes data and returns a JPEG scaled to ThumbnailWidth. Images narrower
// than that are re-encoded at their own size. WebP is not decodable here and returns an error.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeSignature flattens a captured signature onto a white background and re-encodes
// it as PNG so transparent canvas exports render the same in every viewer.
func NormalizeSignature(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("signature image is empty")
	}
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}
	return buf.Bytes(), nil
}
