package conduct

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// DefaultDebounce is the idle delay before a checklist edit is sent.
const DefaultDebounce = 500 * time.Millisecond

// SendFunc persists one checklist edit.
type SendFunc func(ctx context.Context, roomID, itemID string, upd ItemUpdate) (*domain.ChecklistItem, error)

// bufferedEdit is the local state of one checklist item.
type bufferedEdit struct {
	roomID   string
	local    ItemUpdate
	seq      uint64
	timer    *time.Timer
	pending  bool // local payload not yet handed to send
	inflight int
}

func (e *bufferedEdit) saving() bool { return e.pending || e.inflight > 0 }

// EditBuffer coalesces rapid checklist edits per item. Each item has its own
// timer; only the latest payload within the idle delay is sent.
type EditBuffer struct {
	delay    time.Duration
	send     SendFunc
	onSaved  func(*domain.ChecklistItem)
	onFailed func(itemID string, err error)

	mu       sync.Mutex
	entries  map[string]*bufferedEdit
	closed   bool
	inflight int
	idle     chan struct{} // closed while nothing is in flight
}

// NewEditBuffer creates a buffer. delay <= 0 uses DefaultDebounce.
func NewEditBuffer(delay time.Duration, send SendFunc, onSaved func(*domain.ChecklistItem), onFailed func(string, error)) *EditBuffer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if onSaved == nil {
		onSaved = func(*domain.ChecklistItem) {}
	}
	if onFailed == nil {
		onFailed = func(string, error) {}
	}
	return &EditBuffer{
		delay:    delay,
		send:     send,
		onSaved:  onSaved,
		onFailed: onFailed,
		entries:  make(map[string]*bufferedEdit),
		idle:     closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Set records upd locally and (re)schedules its flush.
func (b *EditBuffer) Set(roomID, itemID string, upd ItemUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrSessionClosed
	}

	e := b.entries[itemID]
	if e == nil {
		e = &bufferedEdit{}
		b.entries[itemID] = e
	}
	e.roomID = roomID
	e.local = upd
	e.pending = true
	e.seq++
	seq := e.seq

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(b.delay, func() { b.fire(itemID, seq) })
	return nil
}

// Local returns the unsaved value for an item, if any.
func (b *EditBuffer) Local(itemID string) (ItemUpdate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[itemID]
	if !ok {
		return ItemUpdate{}, false
	}
	return e.local, true
}

// Saving reports whether an edit for the item is waiting or in flight.
func (b *EditBuffer) Saving(itemID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[itemID]
	return ok && e.saving()
}

// PendingCount counts items with an unsent payload.
func (b *EditBuffer) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.entries {
		if e.pending {
			n++
		}
	}
	return n
}

func (b *EditBuffer) fire(itemID string, seq uint64) {
	b.mu.Lock()
	e := b.entries[itemID]
	// 只执行最近一次调度的回调
	if b.closed || e == nil || e.seq != seq || !e.pending {
		b.mu.Unlock()
		return
	}
	roomID, payload := e.roomID, e.local
	b.take(e)
	b.mu.Unlock()

	_ = b.dispatch(context.Background(), e, roomID, itemID, seq, payload)
}

// take hands the pending payload to a sender; caller holds mu.
func (b *EditBuffer) take(e *bufferedEdit) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = false
	e.inflight++
	if b.inflight == 0 {
		b.idle = make(chan struct{})
	}
	b.inflight++
}

func (b *EditBuffer) dispatch(ctx context.Context, e *bufferedEdit, roomID, itemID string, seq uint64, payload ItemUpdate) error {
	item, err := b.send(ctx, roomID, itemID, payload)
	if err == nil {
		b.onSaved(item)
	}

	b.mu.Lock()
	b.inflight--
	if b.inflight == 0 {
		close(b.idle)
	}
	e.inflight--
	// 没有更新的编辑时丢弃本地值，以服务端返回为准
	if err == nil && e.seq == seq && !e.saving() && b.entries[itemID] == e {
		delete(b.entries, itemID)
	}
	b.mu.Unlock()

	if err != nil {
		b.onFailed(itemID, err)
		return err
	}
	return nil
}

// Flush sends every pending payload now and waits for all in-flight requests.
func (b *EditBuffer) Flush(ctx context.Context) error {
	type job struct {
		entry   *bufferedEdit
		roomID  string
		itemID  string
		seq     uint64
		payload ItemUpdate
	}

	b.mu.Lock()
	var jobs []job
	for id, e := range b.entries {
		if !e.pending {
			continue
		}
		jobs = append(jobs, job{entry: e, roomID: e.roomID, itemID: id, seq: e.seq, payload: e.local})
		b.take(e)
	}
	b.mu.Unlock()

	var g errgroup.Group
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			return b.dispatch(ctx, j.entry, j.roomID, j.itemID, j.seq, j.payload)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	idle := b.idle
	b.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard drops local state for the given items and cancels their timers.
func (b *EditBuffer) Discard(itemIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range itemIDs {
		if e := b.entries[id]; e != nil {
			if e.timer != nil {
				e.timer.Stop()
			}
			delete(b.entries, id)
		}
	}
}

// discardSettled drops local entries with no newer pending or in-flight edit.
func (b *EditBuffer) discardSettled() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, e := range b.entries {
		if !e.saving() {
			delete(b.entries, id)
		}
	}
}

// Close stops every timer. In-flight requests finish; nothing new fires.
func (b *EditBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, e := range b.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
}
