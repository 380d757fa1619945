// Package report renders an inspection detail as an Excel workbook or a PDF.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

const (
	sheetSummary   = "Summary"
	sheetChecklist = "Checklist"
	sheetIssues    = "Issues"
)

// ChecklistHeader 检查项表头
var ChecklistHeader = []string{"Room", "Room Type", "#", "Item", "Kind", "Status", "Severity", "Notes"}

// IssuesHeader 问题表头
var IssuesHeader = []string{"Title", "Severity", "Room", "Description", "Photos"}

// GenerateWorkbook 生成检查报告 Excel 文件
func GenerateWorkbook(d *domain.InspectionDetail) ([]byte, error) {
	if d == nil || d.Inspection == nil {
		return nil, fmt.Errorf("inspection is required")
	}

	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetChecklist, sheetIssues} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, d, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]any{}
	for _, r := range d.Rooms {
		for i, it := range r.Checklist {
			rows = append(rows, []any{r.Name, string(r.RoomType), i + 1, it.Description, string(it.Kind),
				string(it.Status), string(it.Severity), it.Notes})
		}
	}
	if err := writeTable(f, sheetChecklist, ChecklistHeader, rows, headerStyle, []float64{20, 14, 5, 45, 14, 10, 10, 40}); err != nil {
		f.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, is := range d.Issues {
		roomName := ""
		if room := d.FindRoom(is.RoomID); room != nil {
			roomName = room.Name
		}
		rows = append(rows, []any{is.Title, string(is.Severity), roomName, is.Description, len(is.Photos)})
	}
	if err := writeTable(f, sheetIssues, IssuesHeader, rows, headerStyle, []float64{30, 10, 20, 50, 8}); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, d *domain.InspectionDetail, headerStyle int) error {
	insp := d.Inspection
	completed := ""
	if insp.CompletedAt != nil {
		completed = insp.CompletedAt.Format("2006-01-02 15:04:05")
	}
	pairs := [][]any{
		{"Inspection ID", insp.InspectionID},
		{"Property", insp.PropertyID},
		{"Unit", insp.UnitID},
		{"Type", string(insp.Type)},
		{"Status", string(insp.Status)},
		{"Scheduled", insp.ScheduledAt.Format(time.RFC3339)},
		{"Completed", completed},
		{"Rooms", len(d.Rooms)},
		{"Checklist items", d.ChecklistItemCount()},
		{"Issues", len(d.Issues)},
		{"Photos", d.PhotoCount()},
		{"Signed", insp.SignatureURL != ""},
		{"Findings", insp.Findings},
		{"Notes", insp.Notes},
	}
	for i, p := range pairs {
		row := i + 1
		if err := setCellValue(f, sheetSummary, 1, row, p[0]); err != nil {
			return fmt.Errorf("failed to set summary label: %w", err)
		}
		if err := setCellValue(f, sheetSummary, 2, row, p[1]); err != nil {
			return fmt.Errorf("failed to set summary value: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(pairs)), headerStyle); err != nil {
		return fmt.Errorf("failed to set summary style: %w", err)
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(sheetSummary, "B", "B", 80); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		for j, value := range row {
			if value == nil || value == "" {
				continue
			}
			if err := setCellValue(f, sheet, j+1, i+2, value); err != nil {
				return fmt.Errorf("failed to set cell value at row %d, col %d: %w", i+2, j+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

// setCellValue 设置单元格值
func setCellValue(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
