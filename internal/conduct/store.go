package conduct

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// MsgChecklistExists is returned when generating over an existing checklist.
const MsgChecklistExists = "Room already has a checklist"

// AddRoom creates a room and refreshes the detail.
func (s *Session) AddRoom(ctx context.Context, in RoomInput) (*domain.Room, error) {
	if err := s.requireOpen("add room"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationError("add room", "Room name is required")
	}
	if !in.RoomType.Valid() {
		return nil, validationError("add room", "Select a room type")
	}

	room, err := s.api.AddRoom(ctx, s.id, in)
	if err != nil {
		return nil, classify("add room", err)
	}
	s.logger.Info("Room added", zap.String("room_id", room.RoomID), zap.String("name", room.Name))
	return room, s.Refresh(ctx)
}

// EditRoom patches a room's name, type or notes.
func (s *Session) EditRoom(ctx context.Context, roomID string, patch RoomPatch) (*domain.Room, error) {
	if err := s.requireOpen("edit room"); err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, validationError("edit room", "Room name is required")
	}
	if patch.RoomType != nil && !patch.RoomType.Valid() {
		return nil, validationError("edit room", "Select a room type")
	}
	if _, err := s.room("edit room", roomID); err != nil {
		return nil, err
	}

	room, err := s.api.UpdateRoom(ctx, roomID, patch)
	if err != nil {
		return nil, classify("edit room", err)
	}
	return room, s.Refresh(ctx)
}

// room returns a copy of the room from the authoritative detail.
func (s *Session) room(op, roomID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.detail.FindRoom(roomID)
	if r == nil {
		return domain.Room{}, &Error{Kind: KindNotFound, Op: op, Message: "Room not found"}
	}
	room := *r
	room.Checklist = append([]domain.ChecklistItem(nil), r.Checklist...)
	return room, nil
}

// GenerateChecklist appends the template for the room's type. Rooms that already
// have items are rejected; use RegenerateChecklist to replace them.
func (s *Session) GenerateChecklist(ctx context.Context, roomID string) ([]domain.ChecklistItem, error) {
	if err := s.requireOpen("generate checklist"); err != nil {
		return nil, err
	}
	room, err := s.room("generate checklist", roomID)
	if err != nil {
		return nil, err
	}
	if room.HasChecklist() {
		return nil, &Error{Kind: KindConflict, Op: "generate checklist", Message: MsgChecklistExists}
	}
	return s.appendTemplate(ctx, room)
}

// RegenerateChecklist deletes the room's items, dropping their unsaved edits, and appends a fresh template.
func (s *Session) RegenerateChecklist(ctx context.Context, roomID string) ([]domain.ChecklistItem, error) {
	if err := s.requireOpen("regenerate checklist"); err != nil {
		return nil, err
	}
	room, err := s.room("regenerate checklist", roomID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(room.Checklist))
	for _, it := range room.Checklist {
		ids = append(ids, it.ItemID)
	}
	s.buffer.Discard(ids...)
	for _, id := range ids {
		if err := s.api.DeleteChecklistItem(ctx, s.id, roomID, id); err != nil && !IsKind(classify("", err), KindNotFound) {
			s.reconcile(ctx)
			return nil, classify("regenerate checklist", err)
		}
	}
	s.logger.Info("Checklist cleared", zap.String("room_id", roomID), zap.Int("items", len(ids)))
	room.Checklist = nil
	return s.appendTemplate(ctx, room)
}

func (s *Session) appendTemplate(ctx context.Context, room domain.Room) ([]domain.ChecklistItem, error) {
	s.mu.RLock()
	typ := s.detail.Inspection.Type
	s.mu.RUnlock()

	template := domain.ChecklistTemplate(typ, room.RoomType)
	items := make([]domain.ChecklistItem, 0, len(template))
	for _, desc := range template {
		item, err := s.api.AddChecklistItem(ctx, s.id, room.RoomID, ItemInput{Description: desc, Kind: domain.KindChecklistItem})
		if err != nil {
			s.reconcile(ctx)
			return nil, classify("generate checklist", err)
		}
		items = append(items, *item)
	}
	s.logger.Info("Checklist generated", zap.String("room_id", room.RoomID), zap.Int("items", len(items)))
	return items, s.Refresh(ctx)
}

// AddChecklistItem appends a custom item, e.g. an issue found during the walk-through.
func (s *Session) AddChecklistItem(ctx context.Context, roomID string, in ItemInput) (*domain.ChecklistItem, error) {
	if err := s.requireOpen("add checklist item"); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, validationError("add checklist item", "Description is required")
	}
	if _, err := s.room("add checklist item", roomID); err != nil {
		return nil, err
	}
	item, err := s.api.AddChecklistItem(ctx, s.id, roomID, in)
	if err != nil {
		return nil, classify("add checklist item", err)
	}
	return item, s.Refresh(ctx)
}

// SetItemStatus updates the item locally and schedules a debounced save.
func (s *Session) SetItemStatus(roomID, itemID string, status domain.ChecklistStatus, notes string) error {
	if err := s.requireOpen("update checklist item"); err != nil {
		return err
	}
	if !status.Valid() {
		return validationError("update checklist item", "Invalid checklist status")
	}
	if _, ok := s.Item(roomID, itemID); !ok {
		return &Error{Kind: KindNotFound, Op: "update checklist item", Message: "Checklist item not found"}
	}
	return s.buffer.Set(roomID, itemID, ItemUpdate{Status: status, Notes: notes})
}

// AddIssue records an ad hoc issue, optionally tied to a room.
func (s *Session) AddIssue(ctx context.Context, in IssueInput) (*domain.Issue, error) {
	if err := s.requireOpen("add issue"); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validationError("add issue", "Issue title is required")
	}
	if in.Severity == "" {
		in.Severity = domain.SeverityMedium
	}
	if !in.Severity.Valid() {
		return nil, validationError("add issue", "Invalid severity")
	}
	if in.RoomID != "" {
		if _, err := s.room("add issue", in.RoomID); err != nil {
			return nil, err
		}
	}

	issue, err := s.api.AddIssue(ctx, s.id, in)
	if err != nil {
		return nil, classify("add issue", err)
	}
	return issue, s.Refresh(ctx)
}

// AddPhoto links an already uploaded photo to a room and/or issue.
func (s *Session) AddPhoto(ctx context.Context, target PhotoTarget, url, thumbnailURL, caption string) (*domain.Photo, error) {
	if err := s.requireOpen("add photo"); err != nil {
		return nil, err
	}
	if target.RoomID == "" && target.IssueID == "" {
		return nil, validationError("add photo", "Select a room or issue for the photo")
	}
	photo, err := s.api.LinkPhoto(ctx, s.id, PhotoLink{
		RoomID:       target.RoomID,
		IssueID:      target.IssueID,
		URL:          url,
		ThumbnailURL: thumbnailURL,
		Caption:      caption,
	})
	if err != nil {
		return nil, classify("add photo", err)
	}
	return photo, s.Refresh(ctx)
}
