package domain

import "time"

// IssueSeverity 问题严重程度
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "LOW"
	SeverityMedium   IssueSeverity = "MEDIUM"
	SeverityHigh     IssueSeverity = "HIGH"
	SeverityCritical IssueSeverity = "CRITICAL"
)

// Severities lists severities from most to least severe.
var Severities = []IssueSeverity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s IssueSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Issue 检查中临时记录的问题（对应 inspection_issues 表），可选关联房间
type Issue struct {
	IssueID      string        `json:"id" db:"issue_id"`
	InspectionID string        `json:"inspectionId" db:"inspection_id"`
	RoomID       string        `json:"roomId,omitempty" db:"room_id"` // nullable
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description,omitempty" db:"description"`
	Severity     IssueSeverity `json:"severity" db:"severity"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	Photos       []Photo       `json:"photos"`
}
