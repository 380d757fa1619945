package conduct

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// Options 会话配置
type Options struct {
	Debounce time.Duration // 0 uses DefaultDebounce
	Notifier Notifier
	Logger   *zap.Logger
}

// Session drives one inspection through the conduct workflow. It owns the
// authoritative detail, the step controller and the checklist edit buffer.
type Session struct {
	api      API
	id       string
	logger   *zap.Logger
	notifier Notifier

	mu        sync.RWMutex
	detail    *domain.InspectionDetail
	steps     *StepController
	signature *Upload // captured, uploaded on completion
	done      bool

	buffer *EditBuffer
}

// NewSession loads the inspection and returns a session on the Start step.
func NewSession(ctx context.Context, api API, inspectionID string, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(opts.Logger)
	}
	s := &Session{
		api:      api,
		id:       inspectionID,
		logger:   opts.Logger.With(zap.String("inspection_id", inspectionID)),
		notifier: opts.Notifier,
		steps:    NewStepController(),
	}
	s.buffer = NewEditBuffer(opts.Debounce, s.sendItem, s.applyItem, s.itemFailed)

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	if s.detail.Inspection.Status == domain.StatusCompleted {
		s.done = true
		s.buffer.Close()
	}
	return s, nil
}

func (s *Session) InspectionID() string { return s.id }

// Refresh replaces the authoritative detail with the server's copy.
func (s *Session) Refresh(ctx context.Context) error {
	detail, err := s.api.GetInspection(ctx, s.id)
	if err != nil {
		return classify("refresh", err)
	}
	if detail == nil || detail.Inspection == nil {
		return &Error{Kind: KindAPI, Op: "refresh", Message: "Inspection detail is incomplete"}
	}
	s.mu.Lock()
	s.detail = detail
	s.mu.Unlock()
	return nil
}

// Detail returns a copy of the authoritative detail.
func (s *Session) Detail() *domain.InspectionDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDetail(s.detail)
}

// Item returns the item as the inspector sees it: unsaved local edits win.
func (s *Session) Item(roomID, itemID string) (domain.ChecklistItem, bool) {
	s.mu.RLock()
	var item domain.ChecklistItem
	found := false
	if room := s.detail.FindRoom(roomID); room != nil {
		if it := room.FindItem(itemID); it != nil {
			item, found = *it, true
		}
	}
	s.mu.RUnlock()
	if !found {
		return item, false
	}
	if local, ok := s.buffer.Local(itemID); ok {
		item.Status = local.Status
		item.Notes = local.Notes
	}
	return item, true
}

// Saving reports whether an edit for the item has not been confirmed yet.
func (s *Session) Saving(itemID string) bool { return s.buffer.Saving(itemID) }

func (s *Session) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps.Active()
}

func (s *Session) CompletedSteps() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps.Completed()
}

// GoNext advances when the active step's guard passes; otherwise the step is unchanged.
func (s *Session) GoNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps.GoNext(s.detail)
}

func (s *Session) GoBack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps.GoBack()
}

func (s *Session) JumpTo(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps.JumpTo(step)
}

// Start moves a scheduled inspection to IN_PROGRESS and leaves the Start step.
// REJECTED and IN_PROGRESS inspections are resumed as they are.
func (s *Session) Start(ctx context.Context) error {
	if err := s.requireOpen("start"); err != nil {
		return err
	}
	s.mu.RLock()
	status := s.detail.Inspection.Status
	s.mu.RUnlock()

	if status == domain.StatusScheduled {
		if _, err := s.api.UpdateStatus(ctx, s.id, domain.StatusInProgress); err != nil {
			return classify("start", err)
		}
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		s.logger.Info("Inspection started")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps.Active() != StepStart {
		return nil
	}
	return s.steps.GoNext(s.detail)
}

// Done reports whether the inspection was completed in this session.
func (s *Session) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Close stops pending checklist timers. Unsent edits are dropped; call Flush first to keep them.
func (s *Session) Close() {
	s.buffer.Close()
}

// Flush sends pending checklist edits immediately.
func (s *Session) Flush(ctx context.Context) error {
	return classify("flush", s.buffer.Flush(ctx))
}

func (s *Session) requireOpen(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return &Error{Kind: KindConflict, Op: op, Message: "Inspection already completed"}
	}
	return nil
}

func (s *Session) sendItem(ctx context.Context, roomID, itemID string, upd ItemUpdate) (*domain.ChecklistItem, error) {
	return s.api.UpdateChecklistItem(ctx, s.id, roomID, itemID, upd)
}

// applyItem writes a confirmed item into the authoritative detail.
func (s *Session) applyItem(item *domain.ChecklistItem) {
	if item == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if room := s.detail.FindRoom(item.RoomID); room != nil {
		if it := room.FindItem(item.ItemID); it != nil {
			*it = *item
		}
	}
}

func (s *Session) itemFailed(itemID string, err error) {
	cerr := classify("update checklist item", err)
	s.logger.Warn("Checklist update failed", zap.String("item_id", itemID), zap.Error(err))
	s.notifier.Notify(LevelError, "Failed to save checklist item: "+cerr.Error())
	s.reconcile(context.Background())
}

// reconcile refetches the detail and drops local edits that have no newer pending change.
func (s *Session) reconcile(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("Reconcile refresh failed", zap.Error(err))
	}
	s.buffer.discardSettled()
}

func cloneDetail(d *domain.InspectionDetail) *domain.InspectionDetail {
	if d == nil {
		return nil
	}
	out := &domain.InspectionDetail{}
	if d.Inspection != nil {
		insp := *d.Inspection
		out.Inspection = &insp
	}
	out.Rooms = make([]domain.Room, len(d.Rooms))
	for i, r := range d.Rooms {
		r.Checklist = append([]domain.ChecklistItem(nil), r.Checklist...)
		r.Photos = append([]domain.Photo(nil), r.Photos...)
		out.Rooms[i] = r
	}
	out.Issues = make([]domain.Issue, len(d.Issues))
	for i, is := range d.Issues {
		is.Photos = append([]domain.Photo(nil), is.Photos...)
		out.Issues[i] = is
	}
	return out
}
