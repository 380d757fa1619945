package domain

import "time"

// Photo 检查照片（对应 inspection_photos 表），属于房间和/或问题
type Photo struct {
	PhotoID      string    `json:"id" db:"photo_id"`
	InspectionID string    `json:"inspectionId" db:"inspection_id"`
	RoomID       string    `json:"roomId,omitempty" db:"room_id"`   // nullable
	IssueID      string    `json:"issueId,omitempty" db:"issue_id"` // nullable
	URL          string    `json:"url" db:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	Caption      string    `json:"caption,omitempty" db:"caption"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
