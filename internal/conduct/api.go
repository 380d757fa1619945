package conduct

import (
	"context"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// API is the inspection backend as seen by a conduct session.
type API interface {
	GetInspection(ctx context.Context, inspectionID string) (*domain.InspectionDetail, error)
	UpdateStatus(ctx context.Context, inspectionID string, status domain.InspectionStatus) (*domain.Inspection, error)

	AddRoom(ctx context.Context, inspectionID string, in RoomInput) (*domain.Room, error)
	UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) (*domain.Room, error)

	AddChecklistItem(ctx context.Context, inspectionID, roomID string, in ItemInput) (*domain.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, inspectionID, roomID, itemID string, in ItemUpdate) (*domain.ChecklistItem, error)
	DeleteChecklistItem(ctx context.Context, inspectionID, roomID, itemID string) error

	AddIssue(ctx context.Context, inspectionID string, in IssueInput) (*domain.Issue, error)

	UploadPhotos(ctx context.Context, files []Upload) (*UploadResult, error)
	DeleteUpload(ctx context.Context, url string) error
	LinkPhoto(ctx context.Context, inspectionID string, link PhotoLink) (*domain.Photo, error)
	UploadSignature(ctx context.Context, inspectionID string, sig Upload) (*domain.Inspection, error)

	GenerateSummary(ctx context.Context, inspectionID string) (string, error)
	Complete(ctx context.Context, inspectionID string, in CompleteInput) (*domain.Inspection, error)
}

// RoomInput 新增房间
type RoomInput struct {
	Name     string          `json:"name" yaml:"name"`
	RoomType domain.RoomType `json:"roomType" yaml:"roomType"`
	Notes    string          `json:"notes,omitempty" yaml:"notes"`
}

// RoomPatch 修改房间，nil 字段不修改
type RoomPatch struct {
	Name     *string          `json:"name,omitempty"`
	RoomType *domain.RoomType `json:"roomType,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

// ItemInput 追加检查项
type ItemInput struct {
	Description string               `json:"description"`
	Kind        domain.ItemKind      `json:"kind,omitempty"`
	Severity    domain.IssueSeverity `json:"severity,omitempty"`
}

// ItemUpdate is the debounced checklist payload: last write wins.
type ItemUpdate struct {
	Status domain.ChecklistStatus `json:"status"`
	Notes  string                 `json:"notes"`
}

// IssueInput 新增问题
type IssueInput struct {
	RoomID      string               `json:"roomId,omitempty" yaml:"roomId"`
	Title       string               `json:"title" yaml:"title"`
	Description string               `json:"description,omitempty" yaml:"description"`
	Severity    domain.IssueSeverity `json:"severity" yaml:"severity"`
}

// PhotoTarget 照片归属：房间和/或问题，至少一个
type PhotoTarget struct {
	RoomID  string
	IssueID string
}

// PhotoLink 关联已上传的照片
type PhotoLink struct {
	RoomID       string `json:"roomId,omitempty"`
	IssueID      string `json:"issueId,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Caption      string `json:"caption,omitempty"`
}

// Upload is one file picked by the inspector.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 { return int64(len(u.Data)) }

// UploadResult 上传结果，thumbnails 与 urls 一一对应
type UploadResult struct {
	URLs       []string `json:"urls"`
	Thumbnails []string `json:"thumbnails"`
}

// CompleteInput 完成检查
type CompleteInput struct {
	Findings string `json:"findings"`
	Notes    string `json:"notes,omitempty"`
}
