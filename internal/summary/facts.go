// Package summary turns an inspection detail into findings text, either through a
// generative model or as a plain-text fallback.
package summary

import (
	"fmt"
	"strings"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// Facts 从检查详情汇总出的统计
type Facts struct {
	Rooms          int
	IssuesBySev    map[domain.IssueSeverity]int // ad hoc issues plus failed issue-kind items
	Issues         int
	FailedItems    []string // "Room: description"
	PendingItems   int
	Photos         int
	HasSignature   bool
	InspectionType domain.InspectionType
}

// Collect computes Facts for a detail.
func Collect(d *domain.InspectionDetail) Facts {
	f := Facts{IssuesBySev: map[domain.IssueSeverity]int{}}
	if d == nil {
		return f
	}
	if d.Inspection != nil {
		f.InspectionType = d.Inspection.Type
		f.HasSignature = d.Inspection.SignatureURL != ""
	}
	f.Rooms = len(d.Rooms)
	for _, is := range d.Issues {
		f.IssuesBySev[is.Severity]++
		f.Issues++
	}
	for _, r := range d.Rooms {
		for _, it := range r.Checklist {
			switch {
			case it.Status == domain.ChecklistFailed && it.Kind == domain.KindIssue:
				sev := it.Severity
				if sev == "" {
					sev = domain.SeverityMedium
				}
				f.IssuesBySev[sev]++
				f.Issues++
			case it.Status == domain.ChecklistFailed:
				f.FailedItems = append(f.FailedItems, r.Name+": "+it.Description)
			case it.Status == domain.ChecklistPending:
				f.PendingItems++
			}
		}
	}
	f.Photos = d.PhotoCount()
	return f
}

// Fallback builds findings text without a model.
func Fallback(d *domain.InspectionDetail) string {
	f := Collect(d)

	var b strings.Builder
	fmt.Fprintf(&b, "Inspected %d room(s).", f.Rooms)
	if f.Issues == 0 {
		b.WriteString(" No issues recorded.")
	} else {
		parts := []string{}
		for _, sev := range domain.Severities {
			if n := f.IssuesBySev[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(sev))))
			}
		}
		fmt.Fprintf(&b, " Found %d issue(s): %s.", f.Issues, strings.Join(parts, ", "))
	}
	if len(f.FailedItems) > 0 {
		fmt.Fprintf(&b, " %d checklist item(s) failed: %s.", len(f.FailedItems), strings.Join(f.FailedItems, "; "))
	}
	fmt.Fprintf(&b, " %d photo(s) captured.", f.Photos)
	return b.String()
}
