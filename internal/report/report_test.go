package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

func sampleDetail() *domain.InspectionDetail {
	done := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return &domain.InspectionDetail{
		Inspection: &domain.Inspection{
			InspectionID: "i-1", PropertyID: "prop-1", UnitID: "4B",
			Type: domain.InspectionMoveOut, Status: domain.StatusCompleted,
			ScheduledAt: done.Add(-time.Hour), CompletedAt: &done,
			Findings: "Kitchen sink leaking.", SignatureURL: "http://x/sig.png",
		},
		Rooms: []domain.Room{{
			RoomID: "r1", Name: "Kitchen", RoomType: domain.RoomKitchen,
			Checklist: []domain.ChecklistItem{
				{Description: "Sink and taps free of leaks", Status: domain.ChecklistFailed, Kind: domain.KindChecklistItem, Notes: "leak"},
				{Description: "Walls", Status: domain.ChecklistPassed, Kind: domain.KindChecklistItem},
			},
			Photos: []domain.Photo{{PhotoID: "p1"}},
		}},
		Issues: []domain.Issue{{IssueID: "is1", RoomID: "r1", Title: "Water damage", Severity: domain.SeverityHigh}},
	}
}

func TestGenerateWorkbook(t *testing.T) {
	data, err := GenerateWorkbook(sampleDetail())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetChecklist, sheetIssues}, f.GetSheetList())

	v, err := f.GetCellValue(sheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "MOVE_OUT", v)

	rows, err := f.GetRows(sheetChecklist)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ChecklistHeader, rows[0])
	assert.Equal(t, "Sink and taps free of leaks", rows[1][3])
	assert.Equal(t, "FAILED", rows[1][5])

	issues, err := f.GetRows(sheetIssues)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "Kitchen", issues[1][2])
}

func TestGenerateWorkbook_RequiresInspection(t *testing.T) {
	_, err := GenerateWorkbook(&domain.InspectionDetail{})
	assert.Error(t, err)
}

func TestGeneratePDF(t *testing.T) {
	data, err := GeneratePDF(sampleDetail(), "https://app.example.com/inspections/i-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestGeneratePDF_WithoutFindingsOrQR(t *testing.T) {
	d := sampleDetail()
	d.Inspection.Findings = ""
	data, err := GeneratePDF(d, "")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Move In", title("MOVE_IN"))
	assert.Equal(t, "Living Room", title("LIVING_ROOM"))
}
