package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// ErrNotFound is wrapped by every repository when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a compare-and-set status update finds a different status.
var ErrStatusConflict = errors.New("status conflict")

// InspectionFilters 检查记录查询过滤器
type InspectionFilters struct {
	PropertyID string
	Status     domain.InspectionStatus
	Type       domain.InspectionType
}

// InspectionsRepository 检查记录Repository接口
type InspectionsRepository interface {
	// GetInspection 获取检查记录
	GetInspection(ctx context.Context, inspectionID string) (*domain.Inspection, error)

	// ListInspections 查询检查记录（支持过滤和分页）
	ListInspections(ctx context.Context, filters *InspectionFilters, page, size int) ([]*domain.Inspection, int, error)

	// CreateInspection 创建检查记录（排期流程使用）
	CreateInspection(ctx context.Context, insp *domain.Inspection) (string, error)

	// SetInspectionStatus 仅当当前状态为 from 时更新为 to
	SetInspectionStatus(ctx context.Context, inspectionID string, from, to domain.InspectionStatus) error

	// SetSignature 保存租户签名图片地址
	SetSignature(ctx context.Context, inspectionID, url string) error

	// CompleteInspection 写入 findings 并把状态置为 COMPLETED（要求当前状态为 IN_PROGRESS 或 REJECTED）
	CompleteInspection(ctx context.Context, inspectionID, findings, notes string, completedAt time.Time) error
}

// RoomPatch carries optional room updates; nil fields are left unchanged.
type RoomPatch struct {
	Name     *string
	RoomType *domain.RoomType
	Notes    *string
}

// RoomsRepository 房间Repository接口
type RoomsRepository interface {
	ListRooms(ctx context.Context, inspectionID string) ([]*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	// CreateRoom 追加房间，position 为当前房间数
	CreateRoom(ctx context.Context, room *domain.Room) (string, error)
	UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) error
}

// ChecklistRepository 检查项Repository接口
type ChecklistRepository interface {
	// ListItemsByInspection 返回检查下所有房间的检查项，按 room_id, position 排序
	ListItemsByInspection(ctx context.Context, inspectionID string) ([]*domain.ChecklistItem, error)
	GetItem(ctx context.Context, itemID string) (*domain.ChecklistItem, error)
	// AppendItem 追加到房间末尾（position = max + 1），状态为 PENDING
	AppendItem(ctx context.Context, item *domain.ChecklistItem) (string, error)
	UpdateItem(ctx context.Context, roomID, itemID string, status domain.ChecklistStatus, notes string) (*domain.ChecklistItem, error)
	DeleteItem(ctx context.Context, roomID, itemID string) error
}

// IssuesRepository 问题Repository接口
type IssuesRepository interface {
	ListIssues(ctx context.Context, inspectionID string) ([]*domain.Issue, error)
	GetIssue(ctx context.Context, issueID string) (*domain.Issue, error)
	CreateIssue(ctx context.Context, issue *domain.Issue) (string, error)
}

// PhotosRepository 照片Repository接口
type PhotosRepository interface {
	ListPhotos(ctx context.Context, inspectionID string) ([]*domain.Photo, error)
	CreatePhoto(ctx context.Context, photo *domain.Photo) (string, error)

	// URLReferenced 文件地址是否被照片（原图或缩略图）或检查签名引用
	URLReferenced(ctx context.Context, url string) (bool, error)
}

// Repositories bundles every repository the inspection service needs.
type Repositories struct {
	Inspections InspectionsRepository
	Rooms       RoomsRepository
	Checklist   ChecklistRepository
	Issues      IssuesRepository
	Photos      PhotosRepository
}
