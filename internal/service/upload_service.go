package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/repository"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
)

// MaxPhotosPerUpload 单次上传最多 10 张
const MaxPhotosPerUpload = 10

const (
	photoPrefix     = "inspection-photos"
	signaturePrefix = "signatures"
)

// UploadFile 上传文件（已从 multipart 读出）
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadPhotosResponse 上传照片响应
type UploadPhotosResponse struct {
	Success    bool     `json:"success"`
	URLs       []string `json:"urls"`
	Thumbnails []string `json:"thumbnails"` // 与 urls 一一对应，生成失败时为空字符串
}

func contentTypeOf(f UploadFile) string {
	return storage.ContentType(f.ContentType, f.Data)
}

// UploadPhotos 保存照片并生成缩略图；任一文件校验失败则整体拒绝
func (s *InspectionService) UploadPhotos(ctx context.Context, files []UploadFile) (*UploadPhotosResponse, error) {
	if s.files == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}
	if len(files) == 0 {
		return nil, invalidf("at least one photo is required")
	}
	if len(files) > MaxPhotosPerUpload {
		return nil, invalidf("at most %d photos can be uploaded at once", MaxPhotosPerUpload)
	}
	for _, f := range files {
		if err := storage.ValidateImage(contentTypeOf(f), int64(len(f.Data))); err != nil {
			return nil, invalidf("%s", err.Error())
		}
	}

	resp := &UploadPhotosResponse{Success: true, URLs: []string{}, Thumbnails: []string{}}
	for _, f := range files {
		ct := contentTypeOf(f)
		key := storage.NewObjectKey(photoPrefix, storage.ExtensionFor(ct))
		url, err := s.files.Save(ctx, key, ct, f.Data)
		if err != nil {
			s.cleanup(ctx, resp.URLs, resp.Thumbnails)
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		resp.URLs = append(resp.URLs, url)
		resp.Thumbnails = append(resp.Thumbnails, s.saveThumbnail(ctx, key, f.Data))
	}
	s.logger.Info("Photos uploaded", zap.Int("count", len(resp.URLs)))
	return resp, nil
}

// saveThumbnail 缩略图失败不影响上传（WebP 无法解码时没有缩略图）
func (s *InspectionService) saveThumbnail(ctx context.Context, key string, data []byte) string {
	thumb, err := storage.Thumbnail(data)
	if err != nil {
		s.logger.Debug("Skipping thumbnail", zap.String("key", key), zap.Error(err))
		return ""
	}
	url, err := s.files.Save(ctx, storage.ThumbnailKey(key), "image/jpeg", thumb)
	if err != nil {
		s.logger.Warn("Failed to store thumbnail", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (s *InspectionService) cleanup(ctx context.Context, urls ...[]string) {
	for _, group := range urls {
		for _, u := range group {
			if u == "" {
				continue
			}
			if err := s.files.Delete(ctx, u); err != nil {
				s.logger.Warn("Failed to remove partial upload", zap.String("url", u), zap.Error(err))
			}
		}
	}
}

// DeleteUpload 删除未关联的上传文件（及其缩略图）；已被照片或签名引用的文件返回冲突
func (s *InspectionService) DeleteUpload(ctx context.Context, url string) error {
	if s.files == nil {
		return fmt.Errorf("file storage is not configured")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return invalidf("url is required")
	}
	thumb := storage.ThumbnailKey(url)
	for _, u := range []string{url, thumb} {
		referenced, err := s.repos.Photos.URLReferenced(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to check upload: %w", err)
		}
		if referenced {
			return conflictf("Upload is linked to an inspection and cannot be deleted")
		}
	}
	if err := s.files.Delete(ctx, url); err != nil {
		if errors.Is(err, storage.ErrInvalidURL) {
			return invalidf("url does not belong to this service")
		}
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if err := s.files.Delete(ctx, thumb); err != nil {
		s.logger.Debug("Thumbnail not removed", zap.String("url", thumb), zap.Error(err))
	}
	s.logger.Info("Upload deleted", zap.String("url", url))
	return nil
}

// LinkPhotoRequest 关联照片请求（roomId 与 issueId 至少一个）
type LinkPhotoRequest struct {
	InspectionID string
	RoomID       string
	IssueID      string
	URL          string
	ThumbnailURL string
	Caption      string
}

// LinkPhoto 把已上传的照片关联到房间或问题
func (s *InspectionService) LinkPhoto(ctx context.Context, req LinkPhotoRequest) (*domain.Photo, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, invalidf("url is required")
	}
	if req.RoomID == "" && req.IssueID == "" {
		return nil, invalidf("roomId or issueId is required")
	}
	if _, err := s.requireEditable(ctx, req.InspectionID); err != nil {
		return nil, err
	}
	if req.RoomID != "" {
		if _, err := s.roomInInspection(ctx, req.InspectionID, req.RoomID); err != nil {
			return nil, err
		}
	}
	if req.IssueID != "" {
		issue, err := s.repos.Issues.GetIssue(ctx, req.IssueID)
		if err != nil {
			return nil, err
		}
		if issue.InspectionID != req.InspectionID {
			return nil, fmt.Errorf("issue %w", repository.ErrNotFound)
		}
	}

	photo := &domain.Photo{
		InspectionID: req.InspectionID,
		RoomID:       req.RoomID,
		IssueID:      req.IssueID,
		URL:          strings.TrimSpace(req.URL),
		ThumbnailURL: req.ThumbnailURL,
		Caption:      req.Caption,
	}
	photoID, err := s.repos.Photos.CreatePhoto(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("failed to link photo: %w", err)
	}
	photo.PhotoID = photoID
	photo.CreatedAt = s.now()
	return photo, nil
}

// SaveSignatureRequest 保存租户签名请求
type SaveSignatureRequest struct {
	InspectionID string
	File         UploadFile
}

// SaveSignature 保存签名图片（PNG/JPEG，统一转为白底 PNG）
func (s *InspectionService) SaveSignature(ctx context.Context, req SaveSignatureRequest) (*domain.Inspection, error) {
	if s.files == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}
	ct := contentTypeOf(req.File)
	if ct != "image/png" && ct != "image/jpeg" {
		return nil, invalidf("Signature must be a PNG or JPEG image")
	}
	if err := storage.ValidateImage(ct, int64(len(req.File.Data))); err != nil {
		return nil, invalidf("%s", err.Error())
	}
	insp, err := s.requireEditable(ctx, req.InspectionID)
	if err != nil {
		return nil, err
	}

	png, err := storage.NormalizeSignature(req.File.Data)
	if err != nil {
		return nil, invalidf("Signature image could not be read")
	}
	url, err := s.files.Save(ctx, storage.NewObjectKey(signaturePrefix+"/"+insp.InspectionID, ".png"), "image/png", png)
	if err != nil {
		return nil, fmt.Errorf("failed to store signature: %w", err)
	}
	if err := s.repos.Inspections.SetSignature(ctx, insp.InspectionID, url); err != nil {
		s.cleanup(ctx, []string{url})
		return nil, fmt.Errorf("failed to save signature: %w", err)
	}
	if insp.SignatureURL != "" && insp.SignatureURL != url {
		if err := s.files.Delete(ctx, insp.SignatureURL); err != nil {
			s.logger.Debug("Previous signature not removed", zap.String("url", insp.SignatureURL), zap.Error(err))
		}
	}
	s.logger.Info("Signature saved", zap.String("inspection_id", insp.InspectionID))
	return s.repos.Inspections.GetInspection(ctx, insp.InspectionID)
}
