package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// MemoryInspectionsRepo: DB 未就绪时的联测实现（本地开发和测试使用）
// - 单个结构体实现全部五个 Repository 接口
// - IDs 使用 uuid
// - 返回值均为拷贝，调用方修改不会影响存储
type MemoryInspectionsRepo struct {
	mu sync.RWMutex

	inspections map[string]domain.Inspection
	rooms       map[string]domain.Room          // roomID -> room (Checklist/Photos unused)
	items       map[string]domain.ChecklistItem // itemID -> item
	issues      map[string]domain.Issue         // issueID -> issue (Photos unused)
	photos      map[string]domain.Photo         // photoID -> photo

	now  func() time.Time
	last time.Time
}

func NewMemoryInspectionsRepo() *MemoryInspectionsRepo {
	return &MemoryInspectionsRepo{
		inspections: map[string]domain.Inspection{},
		rooms:       map[string]domain.Room{},
		items:       map[string]domain.ChecklistItem{},
		issues:      map[string]domain.Issue{},
		photos:      map[string]domain.Photo{},
		now:         time.Now,
	}
}

// NewMemoryRepositories 返回共享同一个内存存储的 Repositories
func NewMemoryRepositories() *Repositories {
	m := NewMemoryInspectionsRepo()
	return &Repositories{
		Inspections: m,
		Rooms:       m,
		Checklist:   m,
		Issues:      m,
		Photos:      m,
	}
}

var (
	_ InspectionsRepository = (*MemoryInspectionsRepo)(nil)
	_ RoomsRepository       = (*MemoryInspectionsRepo)(nil)
	_ ChecklistRepository   = (*MemoryInspectionsRepo)(nil)
	_ IssuesRepository      = (*MemoryInspectionsRepo)(nil)
	_ PhotosRepository      = (*MemoryInspectionsRepo)(nil)
)

// tick returns a strictly increasing timestamp so creation order survives map iteration.
// Callers hold r.mu.
func (r *MemoryInspectionsRepo) tick() time.Time {
	t := r.now()
	if !t.After(r.last) {
		t = r.last.Add(time.Nanosecond)
	}
	r.last = t
	return t
}

// ---- inspections ----

func (r *MemoryInspectionsRepo) GetInspection(_ context.Context, inspectionID string) (*domain.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	insp, ok := r.inspections[inspectionID]
	if !ok {
		return nil, fmt.Errorf("inspection %w", ErrNotFound)
	}
	return &insp, nil
}

func (r *MemoryInspectionsRepo) ListInspections(_ context.Context, filters *InspectionFilters, page, size int) ([]*domain.Inspection, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []*domain.Inspection{}
	for _, insp := range r.inspections {
		if filters != nil {
			if filters.PropertyID != "" && insp.PropertyID != filters.PropertyID {
				continue
			}
			if filters.Status != "" && insp.Status != filters.Status {
				continue
			}
			if filters.Type != "" && insp.Type != filters.Type {
				continue
			}
		}
		insp := insp
		all = append(all, &insp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.After(all[j].ScheduledAt) })

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	total := len(all)
	start := (page - 1) * size
	if start >= total {
		return []*domain.Inspection{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryInspectionsRepo) CreateInspection(_ context.Context, insp *domain.Inspection) (string, error) {
	if insp.PropertyID == "" {
		return "", fmt.Errorf("property_id is required")
	}
	if !insp.Type.Valid() {
		return "", fmt.Errorf("invalid inspection type: %s", insp.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.tick()
	stored := *insp
	stored.InspectionID = uuid.NewString()
	if stored.Status == "" {
		stored.Status = domain.StatusScheduled
	}
	if stored.ScheduledAt.IsZero() {
		stored.ScheduledAt = now
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.inspections[stored.InspectionID] = stored
	return stored.InspectionID, nil
}

func (r *MemoryInspectionsRepo) SetInspectionStatus(_ context.Context, inspectionID string, from, to domain.InspectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	insp, ok := r.inspections[inspectionID]
	if !ok {
		return fmt.Errorf("inspection %w", ErrNotFound)
	}
	if insp.Status != from {
		return ErrStatusConflict
	}
	insp.Status = to
	insp.UpdatedAt = r.tick()
	r.inspections[inspectionID] = insp
	return nil
}

func (r *MemoryInspectionsRepo) SetSignature(_ context.Context, inspectionID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	insp, ok := r.inspections[inspectionID]
	if !ok {
		return fmt.Errorf("inspection %w", ErrNotFound)
	}
	insp.SignatureURL = url
	insp.UpdatedAt = r.tick()
	r.inspections[inspectionID] = insp
	return nil
}

func (r *MemoryInspectionsRepo) CompleteInspection(_ context.Context, inspectionID, findings, notes string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	insp, ok := r.inspections[inspectionID]
	if !ok {
		return fmt.Errorf("inspection %w", ErrNotFound)
	}
	if insp.Status != domain.StatusInProgress && insp.Status != domain.StatusRejected {
		return ErrStatusConflict
	}
	insp.Status = domain.StatusCompleted
	insp.Findings = findings
	if notes != "" {
		insp.Notes = notes
	}
	t := completedAt
	insp.CompletedAt = &t
	insp.UpdatedAt = r.tick()
	r.inspections[inspectionID] = insp
	return nil
}

// ---- rooms ----

func (r *MemoryInspectionsRepo) ListRooms(_ context.Context, inspectionID string) ([]*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Room{}
	for _, room := range r.rooms {
		if room.InspectionID == inspectionID {
			room := room
			out = append(out, &room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *MemoryInspectionsRepo) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %w", ErrNotFound)
	}
	return &room, nil
}

func (r *MemoryInspectionsRepo) CreateRoom(_ context.Context, room *domain.Room) (string, error) {
	if room.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if strings.TrimSpace(room.Name) == "" {
		return "", fmt.Errorf("name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inspections[room.InspectionID]; !ok {
		return "", fmt.Errorf("inspection %w", ErrNotFound)
	}
	position := 0
	for _, existing := range r.rooms {
		if existing.InspectionID == room.InspectionID {
			position++
		}
	}
	stored := domain.Room{
		RoomID:       uuid.NewString(),
		InspectionID: room.InspectionID,
		Name:         room.Name,
		RoomType:     room.RoomType,
		Notes:        room.Notes,
		Position:     position,
		CreatedAt:    r.tick(),
	}
	r.rooms[stored.RoomID] = stored
	return stored.RoomID, nil
}

func (r *MemoryInspectionsRepo) UpdateRoom(_ context.Context, roomID string, patch RoomPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %w", ErrNotFound)
	}
	if patch.Name != nil {
		room.Name = *patch.Name
	}
	if patch.RoomType != nil {
		room.RoomType = *patch.RoomType
	}
	if patch.Notes != nil {
		room.Notes = *patch.Notes
	}
	r.rooms[roomID] = room
	return nil
}

// ---- checklist items ----

func (r *MemoryInspectionsRepo) ListItemsByInspection(_ context.Context, inspectionID string) ([]*domain.ChecklistItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.ChecklistItem{}
	for _, item := range r.items {
		room, ok := r.rooms[item.RoomID]
		if !ok || room.InspectionID != inspectionID {
			continue
		}
		item := item
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := r.rooms[out[i].RoomID].Position, r.rooms[out[j].RoomID].Position
		if ri != rj {
			return ri < rj
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *MemoryInspectionsRepo) GetItem(_ context.Context, itemID string) (*domain.ChecklistItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("checklist item %w", ErrNotFound)
	}
	return &item, nil
}

func (r *MemoryInspectionsRepo) AppendItem(_ context.Context, item *domain.ChecklistItem) (string, error) {
	if item.RoomID == "" {
		return "", fmt.Errorf("room_id is required")
	}
	if strings.TrimSpace(item.Description) == "" {
		return "", fmt.Errorf("description is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[item.RoomID]; !ok {
		return "", fmt.Errorf("room %w", ErrNotFound)
	}
	position := 0
	for _, existing := range r.items {
		if existing.RoomID == item.RoomID && existing.Position >= position {
			position = existing.Position + 1
		}
	}
	kind := item.Kind
	if kind == "" {
		kind = domain.KindChecklistItem
	}
	stored := domain.ChecklistItem{
		ItemID:      uuid.NewString(),
		RoomID:      item.RoomID,
		Kind:        kind,
		Description: item.Description,
		Status:      domain.ChecklistPending,
		Severity:    item.Severity,
		Position:    position,
		UpdatedAt:   r.tick(),
	}
	r.items[stored.ItemID] = stored
	return stored.ItemID, nil
}

func (r *MemoryInspectionsRepo) UpdateItem(_ context.Context, roomID, itemID string, status domain.ChecklistStatus, notes string) (*domain.ChecklistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok || item.RoomID != roomID {
		return nil, fmt.Errorf("checklist item %w", ErrNotFound)
	}
	item.Status = status
	item.Notes = notes
	item.UpdatedAt = r.tick()
	r.items[itemID] = item
	return &item, nil
}

func (r *MemoryInspectionsRepo) DeleteItem(_ context.Context, roomID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok || item.RoomID != roomID {
		return fmt.Errorf("checklist item %w", ErrNotFound)
	}
	delete(r.items, itemID)
	return nil
}

// ---- issues ----

func (r *MemoryInspectionsRepo) ListIssues(_ context.Context, inspectionID string) ([]*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Issue{}
	for _, issue := range r.issues {
		if issue.InspectionID == inspectionID {
			issue := issue
			out = append(out, &issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryInspectionsRepo) GetIssue(_ context.Context, issueID string) (*domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[issueID]
	if !ok {
		return nil, fmt.Errorf("issue %w", ErrNotFound)
	}
	return &issue, nil
}

func (r *MemoryInspectionsRepo) CreateIssue(_ context.Context, issue *domain.Issue) (string, error) {
	if issue.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if strings.TrimSpace(issue.Title) == "" {
		return "", fmt.Errorf("title is required")
	}
	if !issue.Severity.Valid() {
		return "", fmt.Errorf("invalid severity: %s", issue.Severity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inspections[issue.InspectionID]; !ok {
		return "", fmt.Errorf("inspection %w", ErrNotFound)
	}
	stored := domain.Issue{
		IssueID:      uuid.NewString(),
		InspectionID: issue.InspectionID,
		RoomID:       issue.RoomID,
		Title:        issue.Title,
		Description:  issue.Description,
		Severity:     issue.Severity,
		CreatedAt:    r.tick(),
	}
	r.issues[stored.IssueID] = stored
	return stored.IssueID, nil
}

// ---- photos ----

func (r *MemoryInspectionsRepo) ListPhotos(_ context.Context, inspectionID string) ([]*domain.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Photo{}
	for _, p := range r.photos {
		if p.InspectionID == inspectionID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryInspectionsRepo) CreatePhoto(_ context.Context, photo *domain.Photo) (string, error) {
	if photo.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if photo.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if photo.RoomID == "" && photo.IssueID == "" {
		return "", fmt.Errorf("room_id or issue_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *photo
	stored.PhotoID = uuid.NewString()
	stored.CreatedAt = r.tick()
	r.photos[stored.PhotoID] = stored
	return stored.PhotoID, nil
}

func (r *MemoryInspectionsRepo) URLReferenced(_ context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.photos {
		if p.URL == url || p.ThumbnailURL == url {
			return true, nil
		}
	}
	for _, insp := range r.inspections {
		if insp.SignatureURL == url {
			return true, nil
		}
	}
	return false, nil
}
