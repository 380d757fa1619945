package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/conduct"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// Script describes one walk-through, e.g.
//
//	inspectionId: 6f1c...
//	rooms:
//	  - name: Kitchen
//	    roomType: KITCHEN
//	    results:
//	      - item: Sink and taps
//	        status: FAILED
//	        notes: leak under sink
//	    photos:
//	      - path: ./sink.jpg
//	        caption: leak
//	signature: ./signature.png
//	complete: true
type Script struct {
	InspectionID string        `yaml:"inspectionId"`
	Rooms        []ScriptRoom  `yaml:"rooms"`
	Issues       []ScriptIssue `yaml:"issues"`
	Signature    string        `yaml:"signature"`
	Notes        string        `yaml:"notes"`
	Complete     bool          `yaml:"complete"`
	baseDir      string
}

type ScriptRoom struct {
	conduct.RoomInput `yaml:",inline"`

	SkipChecklist bool           `yaml:"skipChecklist"`
	Results       []ScriptResult `yaml:"results"`
	Photos        []ScriptPhoto  `yaml:"photos"`
}

// ScriptResult matches a checklist item by description (case-insensitive).
type ScriptResult struct {
	Item   string                 `yaml:"item"`
	Status domain.ChecklistStatus `yaml:"status"`
	Notes  string                 `yaml:"notes"`
}

type ScriptPhoto struct {
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

type ScriptIssue struct {
	Room        string               `yaml:"room"` // room name
	Title       string               `yaml:"title"`
	Description string               `yaml:"description"`
	Severity    domain.IssueSeverity `yaml:"severity"`
	Photos      []ScriptPhoto        `yaml:"photos"`
}

// LoadScript parses a YAML script; relative file paths resolve against its directory.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	s.baseDir = filepath.Dir(path)
	return &s, nil
}

func (s *Script) readUpload(path string) (conduct.Upload, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return conduct.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return conduct.Upload{Name: filepath.Base(path), Data: data}, nil
}

// Run drives the session through every step of the script.
func Run(ctx context.Context, sess *conduct.Session, s *Script, logger *zap.Logger) error {
	if err := sess.Start(ctx); err != nil {
		return err
	}

	roomIDs := make(map[string]string, len(s.Rooms))
	for _, r := range s.Rooms {
		room, err := sess.AddRoom(ctx, r.RoomInput)
		if err != nil {
			return fmt.Errorf("room %q: %w", r.Name, err)
		}
		roomIDs[strings.ToLower(r.Name)] = room.RoomID
	}
	if err := sess.GoNext(); err != nil {
		return err
	}

	for _, r := range s.Rooms {
		roomID := roomIDs[strings.ToLower(r.Name)]
		if !r.SkipChecklist {
			if _, err := sess.GenerateChecklist(ctx, roomID); err != nil && !conduct.IsKind(err, conduct.KindConflict) {
				return fmt.Errorf("checklist for %q: %w", r.Name, err)
			}
		}
		for _, res := range r.Results {
			itemID, err := findItem(sess.Detail(), roomID, res.Item)
			if err != nil {
				return fmt.Errorf("room %q: %w", r.Name, err)
			}
			if err := sess.SetItemStatus(roomID, itemID, res.Status, res.Notes); err != nil {
				return fmt.Errorf("room %q item %q: %w", r.Name, res.Item, err)
			}
		}
		for _, p := range r.Photos {
			if err := capture(ctx, sess, s, conduct.PhotoTarget{RoomID: roomID}, p); err != nil {
				return err
			}
		}
	}

	for _, is := range s.Issues {
		in := conduct.IssueInput{Title: is.Title, Description: is.Description, Severity: is.Severity}
		if is.Room != "" {
			roomID, ok := roomIDs[strings.ToLower(is.Room)]
			if !ok {
				return fmt.Errorf("issue %q: unknown room %q", is.Title, is.Room)
			}
			in.RoomID = roomID
		}
		issue, err := sess.AddIssue(ctx, in)
		if err != nil {
			return fmt.Errorf("issue %q: %w", is.Title, err)
		}
		for _, p := range is.Photos {
			if err := capture(ctx, sess, s, conduct.PhotoTarget{RoomID: in.RoomID, IssueID: issue.IssueID}, p); err != nil {
				return err
			}
		}
	}

	if err := sess.Flush(ctx); err != nil {
		return err
	}
	if err := sess.GoNext(); err != nil {
		return err
	}

	if s.Signature != "" {
		sig, err := s.readUpload(s.Signature)
		if err != nil {
			return err
		}
		if err := sess.CaptureSignature(sig); err != nil {
			return err
		}
	}

	if !s.Complete {
		logger.Info("Script finished without completing", zap.String("step", sess.Step().String()))
		return nil
	}
	insp, err := sess.Complete(ctx, s.Notes)
	if err != nil {
		return err
	}
	logger.Info("Inspection completed", zap.String("inspection_id", insp.InspectionID), zap.String("findings", insp.Findings))
	return nil
}

func capture(ctx context.Context, sess *conduct.Session, s *Script, target conduct.PhotoTarget, p ScriptPhoto) error {
	upload, err := s.readUpload(p.Path)
	if err != nil {
		return err
	}
	if _, err := sess.CapturePhoto(ctx, target, upload, p.Caption); err != nil {
		return fmt.Errorf("photo %s: %w", p.Path, err)
	}
	return nil
}

func findItem(d *domain.InspectionDetail, roomID, description string) (string, error) {
	room := d.FindRoom(roomID)
	if room == nil {
		return "", fmt.Errorf("room not found")
	}
	for _, it := range room.Checklist {
		if strings.EqualFold(it.Description, description) {
			return it.ItemID, nil
		}
	}
	return "", fmt.Errorf("no checklist item %q", description)
}
