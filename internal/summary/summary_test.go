package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

func sampleDetail() *domain.InspectionDetail {
	return &domain.InspectionDetail{
		Inspection: &domain.Inspection{InspectionID: "i-1", Type: domain.InspectionRoutine},
		Rooms: []domain.Room{
			{
				RoomID: "r1", Name: "Kitchen", RoomType: domain.RoomKitchen,
				Checklist: []domain.ChecklistItem{
					{Description: "Walls", Status: domain.ChecklistPassed, Kind: domain.KindChecklistItem},
					{Description: "Sink", Status: domain.ChecklistFailed, Kind: domain.KindChecklistItem, Notes: "leak"},
					{Description: "Mould", Status: domain.ChecklistFailed, Kind: domain.KindIssue, Severity: domain.SeverityHigh},
				},
				Photos: []domain.Photo{{PhotoID: "p1"}, {PhotoID: "p2"}},
			},
			{RoomID: "r2", Name: "Bathroom", RoomType: domain.RoomBathroom},
		},
		Issues: []domain.Issue{
			{IssueID: "x", RoomID: "r2", Title: "Cracked tile", Severity: domain.SeverityLow},
		},
	}
}

func TestCollect(t *testing.T) {
	f := Collect(sampleDetail())
	assert.Equal(t, 2, f.Rooms)
	assert.Equal(t, 2, f.Issues)
	assert.Equal(t, 1, f.IssuesBySev[domain.SeverityHigh])
	assert.Equal(t, 1, f.IssuesBySev[domain.SeverityLow])
	assert.Equal(t, []string{"Kitchen: Sink"}, f.FailedItems)
	assert.Equal(t, 2, f.Photos)
}

func TestFallback(t *testing.T) {
	text := Fallback(sampleDetail())
	assert.Equal(t,
		"Inspected 2 room(s). Found 2 issue(s): 1 high, 1 low. 1 checklist item(s) failed: Kitchen: Sink. 2 photo(s) captured.",
		text)
}

func TestFallback_Empty(t *testing.T) {
	assert.Equal(t, "Inspected 0 room(s). No issues recorded. 0 photo(s) captured.",
		Fallback(&domain.InspectionDetail{}))
}

func TestPrompt_IncludesRoomsAndIssues(t *testing.T) {
	p := Prompt(sampleDetail())
	assert.Contains(t, p, "Inspection type: ROUTINE")
	assert.Contains(t, p, `Room "Kitchen" (KITCHEN)`)
	assert.Contains(t, p, "[FAILED] Sink: leak")
	assert.Contains(t, p, "[FAILED] Mould (issue, HIGH)")
	assert.Contains(t, p, "[LOW] Cracked tile (in Bathroom)")
}
