package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/repository"
)

// ListRooms 查询检查下的房间（含检查项和照片）
func (s *InspectionService) ListRooms(ctx context.Context, inspectionID string) ([]domain.Room, error) {
	detail, err := s.GetInspectionDetail(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	return detail.Rooms, nil
}

// AddRoomRequest 添加房间请求
type AddRoomRequest struct {
	InspectionID string
	Name         string
	RoomType     string
	Notes        string
}

// AddRoom 添加房间
func (s *InspectionService) AddRoom(ctx context.Context, req AddRoomRequest) (*domain.Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	rt := domain.RoomType(strings.ToUpper(req.RoomType))
	if !rt.Valid() {
		return nil, invalidf("invalid room type: %s", req.RoomType)
	}
	if _, err := s.requireEditable(ctx, req.InspectionID); err != nil {
		return nil, err
	}

	roomID, err := s.repos.Rooms.CreateRoom(ctx, &domain.Room{
		InspectionID: req.InspectionID,
		Name:         name,
		RoomType:     rt,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add room: %w", err)
	}
	s.logger.Debug("Room added", zap.String("inspection_id", req.InspectionID), zap.String("room_id", roomID))
	return s.repos.Rooms.GetRoom(ctx, roomID)
}

// UpdateRoomRequest 修改房间请求（nil 字段不修改）
type UpdateRoomRequest struct {
	RoomID   string
	Name     *string
	RoomType *string
	Notes    *string
}

// UpdateRoom 修改房间
func (s *InspectionService) UpdateRoom(ctx context.Context, req UpdateRoomRequest) (*domain.Room, error) {
	if req.RoomID == "" {
		return nil, invalidf("room_id is required")
	}
	room, err := s.repos.Rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireEditable(ctx, room.InspectionID); err != nil {
		return nil, err
	}

	patch := repository.RoomPatch{Notes: req.Notes}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalidf("name cannot be empty")
		}
		patch.Name = &name
	}
	if req.RoomType != nil {
		rt := domain.RoomType(strings.ToUpper(*req.RoomType))
		if !rt.Valid() {
			return nil, invalidf("invalid room type: %s", *req.RoomType)
		}
		patch.RoomType = &rt
	}

	if err := s.repos.Rooms.UpdateRoom(ctx, req.RoomID, patch); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return s.repos.Rooms.GetRoom(ctx, req.RoomID)
}

// roomInInspection 校验房间属于该检查
func (s *InspectionService) roomInInspection(ctx context.Context, inspectionID, roomID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, invalidf("room_id is required")
	}
	room, err := s.repos.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.InspectionID != inspectionID {
		return nil, fmt.Errorf("room %w", repository.ErrNotFound)
	}
	return room, nil
}

// AddChecklistItemRequest 追加检查项请求
type AddChecklistItemRequest struct {
	InspectionID string
	RoomID       string
	Description  string
	Kind         string // 默认 checklist_item
	Severity     string // 仅 issue 类型
}

// AddChecklistItem 追加检查项（末尾，PENDING）
func (s *InspectionService) AddChecklistItem(ctx context.Context, req AddChecklistItemRequest) (*domain.ChecklistItem, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, invalidf("description is required")
	}
	kind := domain.ItemKind(strings.ToLower(req.Kind))
	if kind == "" {
		kind = domain.KindChecklistItem
	}
	if !kind.Valid() {
		return nil, invalidf("invalid kind: %s", req.Kind)
	}
	sev := domain.IssueSeverity(strings.ToUpper(req.Severity))
	if sev != "" {
		if kind != domain.KindIssue {
			return nil, invalidf("severity is only allowed for issue items")
		}
		if !sev.Valid() {
			return nil, invalidf("invalid severity: %s", req.Severity)
		}
	}
	if _, err := s.requireEditable(ctx, req.InspectionID); err != nil {
		return nil, err
	}
	if _, err := s.roomInInspection(ctx, req.InspectionID, req.RoomID); err != nil {
		return nil, err
	}

	itemID, err := s.repos.Checklist.AppendItem(ctx, &domain.ChecklistItem{
		RoomID:      req.RoomID,
		Kind:        kind,
		Description: desc,
		Severity:    sev,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add checklist item: %w", err)
	}
	return s.repos.Checklist.GetItem(ctx, itemID)
}

// UpdateChecklistItemRequest 更新检查项请求
type UpdateChecklistItemRequest struct {
	InspectionID string
	RoomID       string
	ItemID       string
	Status       string
	Notes        string
}

// UpdateChecklistItem 更新检查项状态/备注
func (s *InspectionService) UpdateChecklistItem(ctx context.Context, req UpdateChecklistItemRequest) (*domain.ChecklistItem, error) {
	if req.ItemID == "" {
		return nil, invalidf("item_id is required")
	}
	status := domain.ChecklistStatus(strings.ToUpper(req.Status))
	if !status.Valid() {
		return nil, invalidf("invalid status: %s", req.Status)
	}
	if _, err := s.requireEditable(ctx, req.InspectionID); err != nil {
		return nil, err
	}
	if _, err := s.roomInInspection(ctx, req.InspectionID, req.RoomID); err != nil {
		return nil, err
	}

	item, err := s.repos.Checklist.UpdateItem(ctx, req.RoomID, req.ItemID, status, req.Notes)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteChecklistItem 删除检查项（重新生成清单时使用）
func (s *InspectionService) DeleteChecklistItem(ctx context.Context, inspectionID, roomID, itemID string) error {
	if itemID == "" {
		return invalidf("item_id is required")
	}
	if _, err := s.requireEditable(ctx, inspectionID); err != nil {
		return err
	}
	if _, err := s.roomInInspection(ctx, inspectionID, roomID); err != nil {
		return err
	}
	return s.repos.Checklist.DeleteItem(ctx, roomID, itemID)
}

// ListIssues 查询检查下的问题
func (s *InspectionService) ListIssues(ctx context.Context, inspectionID string) ([]domain.Issue, error) {
	detail, err := s.GetInspectionDetail(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	return detail.Issues, nil
}

// AddIssueRequest 添加问题请求
type AddIssueRequest struct {
	InspectionID string
	RoomID       string
	Title        string
	Description  string
	Severity     string
}

// AddIssue 添加问题
func (s *InspectionService) AddIssue(ctx context.Context, req AddIssueRequest) (*domain.Issue, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalidf("title is required")
	}
	sev := domain.IssueSeverity(strings.ToUpper(req.Severity))
	if !sev.Valid() {
		return nil, invalidf("invalid severity: %s", req.Severity)
	}
	if _, err := s.requireEditable(ctx, req.InspectionID); err != nil {
		return nil, err
	}
	if req.RoomID != "" {
		if _, err := s.roomInInspection(ctx, req.InspectionID, req.RoomID); err != nil {
			return nil, err
		}
	}

	issueID, err := s.repos.Issues.CreateIssue(ctx, &domain.Issue{
		InspectionID: req.InspectionID,
		RoomID:       req.RoomID,
		Title:        title,
		Description:  req.Description,
		Severity:     sev,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add issue: %w", err)
	}
	issue, err := s.repos.Issues.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.Photos = []domain.Photo{}
	return issue, nil
}
