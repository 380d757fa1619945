package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

func seedInspection(t *testing.T, m *MemoryInspectionsRepo, typ domain.InspectionType) string {
	t.Helper()
	id, err := m.CreateInspection(context.Background(), &domain.Inspection{PropertyID: "prop-1", Type: typ})
	require.NoError(t, err)
	return id
}

func TestMemory_StatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)

	require.NoError(t, m.SetInspectionStatus(ctx, id, domain.StatusScheduled, domain.StatusInProgress))
	assert.ErrorIs(t, m.SetInspectionStatus(ctx, id, domain.StatusScheduled, domain.StatusInProgress), ErrStatusConflict)
	assert.ErrorIs(t, m.SetInspectionStatus(ctx, "nope", domain.StatusScheduled, domain.StatusInProgress), ErrNotFound)
}

func TestMemory_CompleteRequiresActiveStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)

	assert.ErrorIs(t, m.CompleteInspection(ctx, id, "f", "", time.Now()), ErrStatusConflict)

	require.NoError(t, m.SetInspectionStatus(ctx, id, domain.StatusScheduled, domain.StatusInProgress))
	require.NoError(t, m.CompleteInspection(ctx, id, "All clear", "n", time.Now()))

	insp, err := m.GetInspection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, insp.Status)
	assert.Equal(t, "All clear", insp.Findings)
	assert.NotNil(t, insp.CompletedAt)
}

func TestMemory_RoomsAppendInOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)

	for _, name := range []string{"Kitchen", "Bathroom", "Bedroom 1"} {
		_, err := m.CreateRoom(ctx, &domain.Room{InspectionID: id, Name: name, RoomType: domain.RoomOther})
		require.NoError(t, err)
	}
	rooms, err := m.ListRooms(ctx, id)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "Kitchen", rooms[0].Name)
	assert.Equal(t, 2, rooms[2].Position)

	_, err = m.CreateRoom(ctx, &domain.Room{InspectionID: "missing", Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_AppendItemDoesNotDeduplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)
	roomID, err := m.CreateRoom(ctx, &domain.Room{InspectionID: id, Name: "Kitchen", RoomType: domain.RoomKitchen})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := m.AppendItem(ctx, &domain.ChecklistItem{RoomID: roomID, Description: "Walls"})
		require.NoError(t, err)
	}
	items, err := m.ListItemsByInspection(ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 1, items[1].Position)
	assert.Equal(t, domain.ChecklistPending, items[1].Status)
	assert.Equal(t, domain.KindChecklistItem, items[1].Kind)
}

func TestMemory_UpdateItemChecksRoom(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)
	roomID, _ := m.CreateRoom(ctx, &domain.Room{InspectionID: id, Name: "Kitchen", RoomType: domain.RoomKitchen})
	itemID, _ := m.AppendItem(ctx, &domain.ChecklistItem{RoomID: roomID, Description: "Walls"})

	_, err := m.UpdateItem(ctx, "other-room", itemID, domain.ChecklistPassed, "")
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := m.UpdateItem(ctx, roomID, itemID, domain.ChecklistFailed, "scuffed")
	require.NoError(t, err)
	assert.Equal(t, "scuffed", item.Notes)

	require.NoError(t, m.DeleteItem(ctx, roomID, itemID))
	_, err = m.GetItem(ctx, itemID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionRoutine)

	insp, _ := m.GetInspection(ctx, id)
	insp.Status = domain.StatusCompleted

	again, _ := m.GetInspection(ctx, id)
	assert.Equal(t, domain.StatusScheduled, again.Status)
}

func TestMemory_IssuesAndPhotosKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	id := seedInspection(t, m, domain.InspectionRoutine)

	for _, title := range []string{"first", "second", "third"} {
		_, err := m.CreateIssue(ctx, &domain.Issue{InspectionID: id, Title: title, Severity: domain.SeverityLow})
		require.NoError(t, err)
	}
	issues, err := m.ListIssues(ctx, id)
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, "first", issues[0].Title)
	assert.Equal(t, "third", issues[2].Title)

	_, err = m.CreatePhoto(ctx, &domain.Photo{InspectionID: id, URL: "u"})
	assert.Error(t, err)
	_, err = m.CreatePhoto(ctx, &domain.Photo{InspectionID: id, IssueID: issues[0].IssueID, URL: "u"})
	require.NoError(t, err)
}

func TestMemory_URLReferenced(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInspectionsRepo()
	id := seedInspection(t, m, domain.InspectionMoveIn)
	room := &domain.Room{InspectionID: id, Name: "Kitchen", RoomType: domain.RoomKitchen}
	roomID, err := m.CreateRoom(ctx, room)
	require.NoError(t, err)

	_, err = m.CreatePhoto(ctx, &domain.Photo{InspectionID: id, RoomID: roomID, URL: "/files/p.png", ThumbnailURL: "/files/p_thumb.jpg"})
	require.NoError(t, err)
	require.NoError(t, m.SetSignature(ctx, id, "/files/sig.png"))

	for _, u := range []string{"/files/p.png", "/files/p_thumb.jpg", "/files/sig.png"} {
		ok, err := m.URLReferenced(ctx, u)
		require.NoError(t, err)
		assert.True(t, ok, u)
	}
	ok, err := m.URLReferenced(ctx, "/files/orphan.png")
	require.NoError(t, err)
	assert.False(t, ok)
}
