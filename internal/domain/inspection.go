package domain

import (
	"fmt"
	"time"
)

// InspectionType 检查类型
type InspectionType string

const (
	InspectionRoutine    InspectionType = "ROUTINE"
	InspectionMoveIn     InspectionType = "MOVE_IN"
	InspectionMoveOut    InspectionType = "MOVE_OUT"
	InspectionEmergency  InspectionType = "EMERGENCY"
	InspectionCompliance InspectionType = "COMPLIANCE"
)

// InspectionTypes lists every type in display order.
var InspectionTypes = []InspectionType{
	InspectionRoutine, InspectionMoveIn, InspectionMoveOut, InspectionEmergency, InspectionCompliance,
}

func (t InspectionType) Valid() bool {
	for _, v := range InspectionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RequiresSignature reports whether completion needs a tenant signature.
func (t InspectionType) RequiresSignature() bool {
	return t == InspectionMoveIn || t == InspectionMoveOut
}

// InspectionStatus 检查状态
type InspectionStatus string

const (
	StatusScheduled  InspectionStatus = "SCHEDULED"
	StatusInProgress InspectionStatus = "IN_PROGRESS"
	StatusCompleted  InspectionStatus = "COMPLETED"
	StatusRejected   InspectionStatus = "REJECTED"
)

func (s InspectionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// allowedTransitions: SCHEDULED -> IN_PROGRESS -> COMPLETED, COMPLETED -> REJECTED (reviewer),
// REJECTED -> COMPLETED (resubmission)
var allowedTransitions = map[InspectionStatus][]InspectionStatus{
	StatusScheduled:  {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusRejected},
	StatusRejected:   {StatusCompleted},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to InspectionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a descriptive error for an illegal status change.
func ValidateTransition(from, to InspectionStatus) error {
	if !to.Valid() {
		return fmt.Errorf("invalid status: %s", to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot change inspection status from %s to %s", from, to)
	}
	return nil
}

// Inspection 检查领域模型（对应 inspections 表）
type Inspection struct {
	InspectionID string           `json:"id" db:"inspection_id"`
	PropertyID   string           `json:"propertyId" db:"property_id"`
	UnitID       string           `json:"unitId,omitempty" db:"unit_id"` // nullable
	Type         InspectionType   `json:"type" db:"inspection_type"`
	Status       InspectionStatus `json:"status" db:"status"`
	ScheduledAt  time.Time        `json:"scheduledAt" db:"scheduled_at"`
	Findings     string           `json:"findings,omitempty" db:"findings"`           // nullable
	Notes        string           `json:"notes,omitempty" db:"notes"`                 // nullable
	SignatureURL string           `json:"signatureUrl,omitempty" db:"signature_url"` // nullable, tenant signature image
	CompletedAt  *time.Time       `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// InspectionDetail is the authoritative aggregate for one inspection: rooms carry their
// checklist items and photos, issues are listed separately.
type InspectionDetail struct {
	Inspection *Inspection `json:"inspection"`
	Rooms      []Room      `json:"rooms"`
	Issues     []Issue     `json:"issues"`
}

// PhotoCount counts room photos plus issue-only photos.
func (d *InspectionDetail) PhotoCount() int {
	n := 0
	for _, r := range d.Rooms {
		n += len(r.Photos)
	}
	for _, is := range d.Issues {
		n += len(is.Photos)
	}
	return n
}

// ChecklistItemCount counts items across every room.
func (d *InspectionDetail) ChecklistItemCount() int {
	n := 0
	for _, r := range d.Rooms {
		n += len(r.Checklist)
	}
	return n
}

// FindRoom returns the room with the given id, or nil.
func (d *InspectionDetail) FindRoom(roomID string) *Room {
	for i := range d.Rooms {
		if d.Rooms[i].RoomID == roomID {
			return &d.Rooms[i]
		}
	}
	return nil
}
