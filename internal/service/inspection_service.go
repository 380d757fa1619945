package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/events"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/report"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/repository"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/store"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/summary"
)

// Deps 检查服务依赖；Generator 为空时 generate-summary 不可用
type Deps struct {
	Repos     *repository.Repositories
	Files     storage.FileStore
	Cache     store.KV
	CacheTTL  time.Duration
	Generator summary.Generator
	Publisher events.Publisher
}

// InspectionService 检查服务
type InspectionService struct {
	repos     *repository.Repositories
	files     storage.FileStore
	cache     store.KV
	cacheTTL  time.Duration
	generator summary.Generator
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewInspectionService 创建检查服务
func NewInspectionService(deps Deps, logger *zap.Logger) *InspectionService {
	s := &InspectionService{
		repos:     deps.Repos,
		files:     deps.Files,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		generator: deps.Generator,
		publisher: deps.Publisher,
		logger:    logger,
		now:       time.Now,
	}
	if s.cache == nil {
		s.cache = store.NewMemoryKV()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 24 * time.Hour
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	return s
}

// ListInspectionsRequest 查询检查列表请求
type ListInspectionsRequest struct {
	PropertyID string
	Status     string
	Type       string
	Page       int
	Size       int
}

// ListInspectionsResponse 查询检查列表响应
type ListInspectionsResponse struct {
	Items []*domain.Inspection `json:"items"`
	Total int                  `json:"total"`
}

// ListInspections 查询检查列表
func (s *InspectionService) ListInspections(ctx context.Context, req ListInspectionsRequest) (*ListInspectionsResponse, error) {
	filters := &repository.InspectionFilters{PropertyID: strings.TrimSpace(req.PropertyID)}
	if req.Status != "" {
		st := domain.InspectionStatus(strings.ToUpper(req.Status))
		if !st.Valid() {
			return nil, invalidf("invalid status: %s", req.Status)
		}
		filters.Status = st
	}
	if req.Type != "" {
		typ := domain.InspectionType(strings.ToUpper(req.Type))
		if !typ.Valid() {
			return nil, invalidf("invalid inspection type: %s", req.Type)
		}
		filters.Type = typ
	}
	items, total, err := s.repos.Inspections.ListInspections(ctx, filters, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	if items == nil {
		items = []*domain.Inspection{}
	}
	return &ListInspectionsResponse{Items: items, Total: total}, nil
}

// ScheduleInspectionRequest 创建（排期）检查请求
type ScheduleInspectionRequest struct {
	PropertyID  string
	UnitID      string
	Type        string
	ScheduledAt time.Time
	Notes       string
}

// ScheduleInspection 创建 SCHEDULED 状态的检查
func (s *InspectionService) ScheduleInspection(ctx context.Context, req ScheduleInspectionRequest) (*domain.Inspection, error) {
	if strings.TrimSpace(req.PropertyID) == "" {
		return nil, invalidf("property_id is required")
	}
	typ := domain.InspectionType(strings.ToUpper(req.Type))
	if !typ.Valid() {
		return nil, invalidf("invalid inspection type: %s", req.Type)
	}

	id, err := s.repos.Inspections.CreateInspection(ctx, &domain.Inspection{
		PropertyID:  strings.TrimSpace(req.PropertyID),
		UnitID:      strings.TrimSpace(req.UnitID),
		Type:        typ,
		Status:      domain.StatusScheduled,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule inspection: %w", err)
	}
	s.logger.Info("Inspection scheduled", zap.String("inspection_id", id), zap.String("type", string(typ)))
	return s.repos.Inspections.GetInspection(ctx, id)
}

// GetInspectionDetail 获取检查详情（房间、检查项、问题、照片并发查询后组装）
func (s *InspectionService) GetInspectionDetail(ctx context.Context, inspectionID string) (*domain.InspectionDetail, error) {
	if inspectionID == "" {
		return nil, invalidf("inspection_id is required")
	}

	var (
		insp   *domain.Inspection
		rooms  []*domain.Room
		items  []*domain.ChecklistItem
		issues []*domain.Issue
		photos []*domain.Photo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		insp, err = s.repos.Inspections.GetInspection(gctx, inspectionID)
		return err
	})
	g.Go(func() (err error) {
		rooms, err = s.repos.Rooms.ListRooms(gctx, inspectionID)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.repos.Checklist.ListItemsByInspection(gctx, inspectionID)
		return err
	})
	g.Go(func() (err error) {
		issues, err = s.repos.Issues.ListIssues(gctx, inspectionID)
		return err
	})
	g.Go(func() (err error) {
		photos, err = s.repos.Photos.ListPhotos(gctx, inspectionID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load inspection detail: %w", err)
	}

	return assembleDetail(insp, rooms, items, issues, photos), nil
}

// assembleDetail 组装：检查项挂到房间；有 room_id 的照片挂到房间，仅有 issue_id 的照片挂到问题
func assembleDetail(insp *domain.Inspection, rooms []*domain.Room, items []*domain.ChecklistItem,
	issues []*domain.Issue, photos []*domain.Photo) *domain.InspectionDetail {

	byRoom := map[string][]domain.ChecklistItem{}
	for _, it := range items {
		byRoom[it.RoomID] = append(byRoom[it.RoomID], *it)
	}
	roomPhotos := map[string][]domain.Photo{}
	issuePhotos := map[string][]domain.Photo{}
	for _, p := range photos {
		switch {
		case p.RoomID != "":
			roomPhotos[p.RoomID] = append(roomPhotos[p.RoomID], *p)
		case p.IssueID != "":
			issuePhotos[p.IssueID] = append(issuePhotos[p.IssueID], *p)
		}
	}

	detail := &domain.InspectionDetail{
		Inspection: insp,
		Rooms:      make([]domain.Room, 0, len(rooms)),
		Issues:     make([]domain.Issue, 0, len(issues)),
	}
	for _, r := range rooms {
		room := *r
		room.Checklist = byRoom[r.RoomID]
		if room.Checklist == nil {
			room.Checklist = []domain.ChecklistItem{}
		}
		sort.SliceStable(room.Checklist, func(i, j int) bool { return room.Checklist[i].Position < room.Checklist[j].Position })
		room.Photos = roomPhotos[r.RoomID]
		if room.Photos == nil {
			room.Photos = []domain.Photo{}
		}
		detail.Rooms = append(detail.Rooms, room)
	}
	for _, is := range issues {
		issue := *is
		issue.Photos = issuePhotos[is.IssueID]
		if issue.Photos == nil {
			issue.Photos = []domain.Photo{}
		}
		detail.Issues = append(detail.Issues, issue)
	}
	return detail
}

// UpdateStatusRequest 更新检查状态请求
type UpdateStatusRequest struct {
	InspectionID string
	Status       string
}

// UpdateStatus 更新检查状态（开始检查、审核驳回）。完成检查必须走 Complete
func (s *InspectionService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Inspection, error) {
	if req.InspectionID == "" {
		return nil, invalidf("inspection_id is required")
	}
	to := domain.InspectionStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !to.Valid() {
		return nil, invalidf("invalid status: %s", req.Status)
	}
	if to == domain.StatusCompleted {
		return nil, invalidf("use the complete action to complete an inspection")
	}

	insp, err := s.repos.Inspections.GetInspection(ctx, req.InspectionID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(insp.Status, to); err != nil {
		return nil, conflictf("%s", err.Error())
	}
	if err := s.repos.Inspections.SetInspectionStatus(ctx, insp.InspectionID, insp.Status, to); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, conflictf("inspection status changed concurrently, reload and retry")
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	updated, err := s.repos.Inspections.GetInspection(ctx, insp.InspectionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inspection status updated",
		zap.String("inspection_id", updated.InspectionID),
		zap.String("from", string(insp.Status)),
		zap.String("to", string(updated.Status)),
	)
	s.publish(ctx, updated)
	return updated, nil
}

// CompleteRequest 完成检查请求
type CompleteRequest struct {
	InspectionID string
	Findings     string
	Notes        string
}

// Complete 完成检查：findings 必填；MOVE_IN/MOVE_OUT 需要租户签名
func (s *InspectionService) Complete(ctx context.Context, req CompleteRequest) (*domain.Inspection, error) {
	if req.InspectionID == "" {
		return nil, invalidf("inspection_id is required")
	}
	findings := strings.TrimSpace(req.Findings)
	if findings == "" {
		return nil, invalidf("findings are required")
	}

	insp, err := s.repos.Inspections.GetInspection(ctx, req.InspectionID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(insp.Status, domain.StatusCompleted) {
		return nil, conflictf("cannot complete an inspection with status %s", insp.Status)
	}
	if insp.Type.RequiresSignature() && insp.SignatureURL == "" {
		return nil, invalidf("A tenant signature is required to complete this inspection")
	}

	if err := s.repos.Inspections.CompleteInspection(ctx, insp.InspectionID, findings, strings.TrimSpace(req.Notes), s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, conflictf("inspection status changed concurrently, reload and retry")
		}
		return nil, fmt.Errorf("failed to complete inspection: %w", err)
	}

	completed, err := s.repos.Inspections.GetInspection(ctx, insp.InspectionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inspection completed",
		zap.String("inspection_id", completed.InspectionID),
		zap.String("type", string(completed.Type)),
	)
	s.publish(ctx, completed)
	return completed, nil
}

// GenerateSummary 生成 AI 总结，按检查内容哈希缓存
func (s *InspectionService) GenerateSummary(ctx context.Context, inspectionID string) (string, error) {
	if s.generator == nil {
		return "", ErrSummaryUnavailable
	}
	detail, err := s.GetInspectionDetail(ctx, inspectionID)
	if err != nil {
		return "", err
	}

	key, err := summaryCacheKey(detail)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	} else if !errors.Is(err, store.ErrMiss) {
		s.logger.Warn("Summary cache read failed", zap.String("key", key), zap.Error(err))
	}

	text, err := s.generator.Generate(ctx, summary.Prompt(detail))
	if err != nil {
		s.logger.Error("Summary generation failed", zap.String("inspection_id", inspectionID), zap.Error(err))
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("failed to generate summary: empty response")
	}

	// 清理旧版本缓存
	if stale, err := s.cache.ScanKeys(ctx, summaryCachePrefix(inspectionID)+"*"); err == nil && len(stale) > 0 {
		if err := s.cache.Delete(ctx, stale...); err != nil {
			s.logger.Warn("Failed to drop stale summaries", zap.Error(err))
		}
	}
	if err := s.cache.Set(ctx, key, text, s.cacheTTL); err != nil {
		s.logger.Warn("Summary cache write failed", zap.String("key", key), zap.Error(err))
	}
	return text, nil
}

func summaryCachePrefix(inspectionID string) string {
	return "summary:" + inspectionID + ":"
}

// summaryCacheKey = summary:{id}:{sha1(detail)}，任何房间/检查项变化都会产生新 key
func summaryCacheKey(d *domain.InspectionDetail) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(raw)
	return summaryCachePrefix(d.Inspection.InspectionID) + hex.EncodeToString(sum[:]), nil
}

// ChecklistTemplate 返回检查模板（只读）
func (s *InspectionService) ChecklistTemplate(inspectionType, roomType string) ([]string, error) {
	typ := domain.InspectionType(strings.ToUpper(inspectionType))
	if !typ.Valid() {
		return nil, invalidf("invalid inspection type: %s", inspectionType)
	}
	rt := domain.RoomType(strings.ToUpper(roomType))
	if roomType == "" {
		rt = domain.RoomOther
	}
	if !rt.Valid() {
		return nil, invalidf("invalid room type: %s", roomType)
	}
	return domain.ChecklistTemplate(typ, rt), nil
}

// ExportWorkbook 导出 Excel 报告
func (s *InspectionService) ExportWorkbook(ctx context.Context, inspectionID string) ([]byte, error) {
	detail, err := s.GetInspectionDetail(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	data, err := report.GenerateWorkbook(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to export workbook: %w", err)
	}
	return data, nil
}

// ExportPDF 导出 PDF 报告；detailURL 用于二维码
func (s *InspectionService) ExportPDF(ctx context.Context, inspectionID, detailURL string) ([]byte, error) {
	detail, err := s.GetInspectionDetail(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	data, err := report.GeneratePDF(detail, detailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to export pdf: %w", err)
	}
	return data, nil
}

func (s *InspectionService) publish(ctx context.Context, insp *domain.Inspection) {
	if err := s.publisher.Publish(ctx, events.NewStatusEvent(insp)); err != nil {
		s.logger.Warn("Failed to publish status event", zap.String("inspection_id", insp.InspectionID), zap.Error(err))
	}
}

// requireEditable 已完成的检查不允许修改房间、检查项、问题和照片
func (s *InspectionService) requireEditable(ctx context.Context, inspectionID string) (*domain.Inspection, error) {
	if inspectionID == "" {
		return nil, invalidf("inspection_id is required")
	}
	insp, err := s.repos.Inspections.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status == domain.StatusCompleted {
		return nil, conflictf("inspection is completed and can no longer be edited")
	}
	return insp, nil
}
