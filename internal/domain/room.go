package domain

import "time"

// RoomType 房间类型
type RoomType string

const (
	RoomBedroom  RoomType = "BEDROOM"
	RoomBathroom RoomType = "BATHROOM"
	RoomKitchen  RoomType = "KITCHEN"
	RoomLiving   RoomType = "LIVING_ROOM"
	RoomDining   RoomType = "DINING_ROOM"
	RoomLaundry  RoomType = "LAUNDRY"
	RoomHallway  RoomType = "HALLWAY"
	RoomGarage   RoomType = "GARAGE"
	RoomExterior RoomType = "EXTERIOR"
	RoomOther    RoomType = "OTHER"
)

var roomTypes = map[RoomType]bool{
	RoomBedroom: true, RoomBathroom: true, RoomKitchen: true, RoomLiving: true, RoomDining: true,
	RoomLaundry: true, RoomHallway: true, RoomGarage: true, RoomExterior: true, RoomOther: true,
}

func (t RoomType) Valid() bool { return roomTypes[t] }

// Room 检查中的房间（对应 inspection_rooms 表）
type Room struct {
	RoomID       string          `json:"id" db:"room_id"`
	InspectionID string          `json:"inspectionId" db:"inspection_id"`
	Name         string          `json:"name" db:"name"`
	RoomType     RoomType        `json:"roomType" db:"room_type"`
	Notes        string          `json:"notes,omitempty" db:"notes"`
	Position     int             `json:"position" db:"position"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	Checklist    []ChecklistItem `json:"checklistItems"`
	Photos       []Photo         `json:"photos"`
}

// HasChecklist reports whether checklist generation produced at least one item.
func (r *Room) HasChecklist() bool {
	return len(r.Checklist) > 0
}

// FindItem returns the checklist item with the given id, or nil.
func (r *Room) FindItem(itemID string) *ChecklistItem {
	for i := range r.Checklist {
		if r.Checklist[i].ItemID == itemID {
			return &r.Checklist[i]
		}
	}
	return nil
}
