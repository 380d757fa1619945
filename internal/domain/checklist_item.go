package domain

import "time"

// ChecklistStatus 检查项状态
type ChecklistStatus string

const (
	ChecklistPending ChecklistStatus = "PENDING"
	ChecklistPassed  ChecklistStatus = "PASSED"
	ChecklistFailed  ChecklistStatus = "FAILED"
	ChecklistNA      ChecklistStatus = "NA"
)

func (s ChecklistStatus) Valid() bool {
	switch s {
	case ChecklistPending, ChecklistPassed, ChecklistFailed, ChecklistNA:
		return true
	}
	return false
}

// ItemKind distinguishes plain checklist points from items recorded as issues.
// Both share one table and one lifecycle; only issue items carry a severity.
type ItemKind string

const (
	KindChecklistItem ItemKind = "checklist_item"
	KindIssue         ItemKind = "issue"
)

func (k ItemKind) Valid() bool {
	return k == KindChecklistItem || k == KindIssue
}

// ChecklistItem 房间检查项（对应 checklist_items 表）
type ChecklistItem struct {
	ItemID      string          `json:"id" db:"item_id"`
	RoomID      string          `json:"roomId" db:"room_id"`
	Kind        ItemKind        `json:"kind" db:"kind"`
	Description string          `json:"description" db:"description"`
	Status      ChecklistStatus `json:"status" db:"status"`
	Notes       string          `json:"notes,omitempty" db:"notes"`
	Severity    IssueSeverity   `json:"severity,omitempty" db:"severity"` // issue kind only
	Position    int             `json:"position" db:"position"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
