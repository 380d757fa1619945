package conduct

import (
	"context"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
)

// MsgSignatureType is returned for signatures that are not PNG or JPEG.
const MsgSignatureType = "Signature must be a PNG or JPEG image"

func (u Upload) contentType() string {
	return storage.ContentType(u.ContentType, u.Data)
}

// ValidatePhoto checks type and size locally before anything is sent.
func ValidatePhoto(u Upload) error {
	if err := storage.ValidateImage(u.contentType(), u.Size()); err != nil {
		return validationError("validate photo", err.Error())
	}
	return nil
}

func validateSignature(u Upload) error {
	if len(u.Data) == 0 {
		return validationError("capture signature", "Signature is empty")
	}
	switch u.contentType() {
	case "image/png", "image/jpeg":
	default:
		return validationError("capture signature", MsgSignatureType)
	}
	if u.Size() > storage.MaxImageSize {
		return validationError("capture signature", storage.ErrImageTooLarge.Error())
	}
	return nil
}

// CapturePhoto uploads the file and links it to target. If linking fails the
// uploaded file is deleted on a best-effort basis and the link error returned.
func (s *Session) CapturePhoto(ctx context.Context, target PhotoTarget, u Upload, caption string) (*domain.Photo, error) {
	if err := s.requireOpen("capture photo"); err != nil {
		return nil, err
	}
	if err := ValidatePhoto(u); err != nil {
		return nil, err
	}
	if target.RoomID == "" && target.IssueID == "" {
		return nil, validationError("capture photo", "Select a room or issue for the photo")
	}
	u.ContentType = u.contentType()

	uploaded, err := s.api.UploadPhotos(ctx, []Upload{u})
	if err != nil {
		return nil, classify("upload photo", err)
	}
	if len(uploaded.URLs) == 0 {
		return nil, &Error{Kind: KindAPI, Op: "upload photo", Message: "Upload returned no file"}
	}
	url := uploaded.URLs[0]
	thumb := ""
	if len(uploaded.Thumbnails) > 0 {
		thumb = uploaded.Thumbnails[0]
	}

	photo, err := s.api.LinkPhoto(ctx, s.id, PhotoLink{
		RoomID:       target.RoomID,
		IssueID:      target.IssueID,
		URL:          url,
		ThumbnailURL: thumb,
		Caption:      caption,
	})
	if err != nil {
		if derr := s.api.DeleteUpload(ctx, url); derr != nil {
			s.logger.Warn("Failed to remove orphaned upload", zap.String("url", url), zap.Error(derr))
		}
		return nil, classify("link photo", err)
	}
	s.logger.Info("Photo captured", zap.String("photo_id", photo.PhotoID))
	return photo, s.Refresh(ctx)
}

// SignatureRequired reports whether completion needs a tenant signature.
func (s *Session) SignatureRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail.Inspection.Type.RequiresSignature()
}

// HasSignature reports a captured or already stored signature.
func (s *Session) HasSignature() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSignatureLocked()
}

func (s *Session) hasSignatureLocked() bool {
	return s.signature != nil || s.detail.Inspection.SignatureURL != ""
}

// CaptureSignature validates and holds the signature until completion.
func (s *Session) CaptureSignature(u Upload) error {
	if err := s.requireOpen("capture signature"); err != nil {
		return err
	}
	if err := validateSignature(u); err != nil {
		return err
	}
	u.ContentType = u.contentType()
	if u.Name == "" {
		u.Name = "signature" + storage.ExtensionFor(u.ContentType)
	}

	s.mu.Lock()
	s.signature = &u
	s.mu.Unlock()
	return nil
}

// ClearSignature drops a captured but not yet uploaded signature.
func (s *Session) ClearSignature() {
	s.mu.Lock()
	s.signature = nil
	s.mu.Unlock()
}
