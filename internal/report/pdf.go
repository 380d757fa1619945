package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/summary"
)

// GeneratePDF renders the inspection as an A4 report. When detailURL is set a QR code
// linking to it is printed in the header.
func GeneratePDF(d *domain.InspectionDetail, detailURL string) ([]byte, error) {
	if d == nil || d.Inspection == nil {
		return nil, fmt.Errorf("inspection is required")
	}
	insp := d.Inspection

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if detailURL != "" {
		qrPng, err := qrcode.Encode(detailURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode qr code: %w", err)
		}
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("detail_qr", imgOptions, bytes.NewReader(qrPng))
		pdf.ImageOptions("detail_qr", 165, 12, 30, 30, false, imgOptions, 0, "")
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(140, 9, tr(fmt.Sprintf("%s Inspection", title(string(insp.Type)))), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	meta := []string{
		"Property: " + insp.PropertyID,
		"Status: " + string(insp.Status),
		"Scheduled: " + insp.ScheduledAt.Format("2006-01-02 15:04"),
	}
	if insp.UnitID != "" {
		meta = append(meta[:1], append([]string{"Unit: " + insp.UnitID}, meta[1:]...)...)
	}
	if insp.CompletedAt != nil {
		meta = append(meta, "Completed: "+insp.CompletedAt.Format("2006-01-02 15:04"))
	}
	for _, line := range meta {
		pdf.CellFormat(140, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	section(pdf, tr, "Findings")
	findings := insp.Findings
	if findings == "" {
		findings = summary.Fallback(d)
	}
	pdf.MultiCell(0, 5, tr(findings), "", "L", false)
	if insp.Notes != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 5, tr("Notes: "+insp.Notes), "", "L", false)
	}
	pdf.Ln(4)

	for _, r := range d.Rooms {
		section(pdf, tr, fmt.Sprintf("%s (%s)", r.Name, title(string(r.RoomType))))
		if len(r.Checklist) == 0 {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 5, tr("No checklist generated"), "", 1, "L", false, 0, "")
		}
		for _, it := range r.Checklist {
			pdf.SetFont("Arial", "", 9)
			status := string(it.Status)
			if it.Kind == domain.KindIssue && it.Severity != "" {
				status += " / " + string(it.Severity)
			}
			pdf.CellFormat(28, 5, status, "1", 0, "C", false, 0, "")
			text := it.Description
			if it.Notes != "" {
				text += " - " + it.Notes
			}
			pdf.MultiCell(0, 5, tr(text), "1", "L", false)
		}
		if len(r.Photos) > 0 {
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 5, fmt.Sprintf("%d photo(s)", len(r.Photos)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	if len(d.Issues) > 0 {
		section(pdf, tr, "Issues")
		pdf.SetFont("Arial", "", 9)
		for _, is := range d.Issues {
			pdf.CellFormat(22, 5, string(is.Severity), "1", 0, "C", false, 0, "")
			text := is.Title
			if is.Description != "" {
				text += ": " + is.Description
			}
			pdf.MultiCell(0, 5, tr(text), "1", "L", false)
		}
	}

	if insp.SignatureURL != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, tr("Signed by tenant: "+insp.SignatureURL), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, heading string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 243, 255)
	pdf.CellFormat(0, 7, tr(heading), "", 1, "L", true, 0, "")
	pdf.Ln(1)
}

// title turns MOVE_IN into "Move In".
func title(s string) string {
	words := strings.Split(strings.ToLower(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
