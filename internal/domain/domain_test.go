package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistTemplate_RoutineKitchen(t *testing.T) {
	items := ChecklistTemplate(InspectionRoutine, RoomKitchen)
	require.Len(t, items, 12)
	assert.Equal(t, "Walls and ceilings free of damage", items[0])
	assert.Equal(t, "Stove, oven and cooktop operational", items[7])
}

func TestChecklistTemplate_RoomWithoutAddendum(t *testing.T) {
	assert.Len(t, ChecklistTemplate(InspectionRoutine, RoomBedroom), 7)
	assert.Len(t, ChecklistTemplate(InspectionEmergency, RoomGarage), 5)
}

func TestChecklistTemplate_DoesNotAliasBase(t *testing.T) {
	a := ChecklistTemplate(InspectionRoutine, RoomBathroom)
	a[0] = "changed"
	b := ChecklistTemplate(InspectionRoutine, RoomBathroom)
	assert.Equal(t, "Walls and ceilings free of damage", b[0])
}

func TestChecklistTemplate_EveryTypeHasBase(t *testing.T) {
	for _, typ := range InspectionTypes {
		assert.NotEmpty(t, ChecklistTemplate(typ, RoomOther), string(typ))
	}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to InspectionStatus
		ok       bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusRejected, StatusCompleted, true},
		{StatusCompleted, StatusRejected, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusInProgress, "DONE", false},
	}
	for _, c := range cases {
		err := ValidateTransition(c.from, c.to)
		if c.ok {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			assert.Error(t, err, "%s -> %s", c.from, c.to)
		}
	}
}

func TestRequiresSignature(t *testing.T) {
	assert.True(t, InspectionMoveIn.RequiresSignature())
	assert.True(t, InspectionMoveOut.RequiresSignature())
	assert.False(t, InspectionRoutine.RequiresSignature())
	assert.False(t, InspectionCompliance.RequiresSignature())
}

func TestInspectionDetail_Counts(t *testing.T) {
	d := &InspectionDetail{
		Rooms: []Room{
			{RoomID: "r1", Checklist: []ChecklistItem{{ItemID: "a"}, {ItemID: "b"}}, Photos: []Photo{{PhotoID: "p1"}}},
			{RoomID: "r2"},
		},
		Issues: []Issue{{IssueID: "i1", Photos: []Photo{{PhotoID: "p2"}}}},
	}
	assert.Equal(t, 2, d.ChecklistItemCount())
	assert.Equal(t, 2, d.PhotoCount())
	require.NotNil(t, d.FindRoom("r1"))
	assert.NotNil(t, d.FindRoom("r1").FindItem("b"))
	assert.Nil(t, d.FindRoom("r3"))
}
