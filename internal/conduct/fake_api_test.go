package conduct

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// statusErr mimics the REST client's error.
type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string       { return e.msg }
func (e *statusErr) HTTPStatus() int     { return e.status }
func (e *statusErr) UserMessage() string { return e.msg }

var errOffline = errors.New("dial tcp: connection refused")

// fakeAPI is an in-memory backend recording every call.
type fakeAPI struct {
	mu     sync.Mutex
	detail *domain.InspectionDetail
	nextID int

	updates     map[string][]ItemUpdate
	updateErr   error
	updateDelay time.Duration

	uploads        int
	uploadErr      error
	links          int
	linkErr        error
	deletedUploads []string

	summaryText string
	summaryErr  error

	signatures   int
	signatureErr error
	completeErr  error
	completed   []CompleteInput
}

func newFakeAPI(typ domain.InspectionType, status domain.InspectionStatus) *fakeAPI {
	return &fakeAPI{
		detail: &domain.InspectionDetail{
			Inspection: &domain.Inspection{InspectionID: "insp-1", PropertyID: "prop-1", Type: typ, Status: status},
			Rooms:      []domain.Room{},
			Issues:     []domain.Issue{},
		},
		updates: make(map[string][]ItemUpdate),
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) updateCount(itemID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates[itemID])
}

func (f *fakeAPI) lastUpdate(itemID string) ItemUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.updates[itemID]
	return u[len(u)-1]
}

func (f *fakeAPI) serverItem(roomID, itemID string) domain.ChecklistItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.detail.FindRoom(roomID).FindItem(itemID)
}

func (f *fakeAPI) GetInspection(_ context.Context, id string) (*domain.InspectionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.detail.Inspection.InspectionID {
		return nil, &statusErr{status: 404, msg: "inspection not found"}
	}
	return cloneDetail(f.detail), nil
}

func (f *fakeAPI) UpdateStatus(_ context.Context, _ string, status domain.InspectionStatus) (*domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !domain.CanTransition(f.detail.Inspection.Status, status) {
		return nil, &statusErr{status: 409, msg: "illegal transition"}
	}
	f.detail.Inspection.Status = status
	insp := *f.detail.Inspection
	return &insp, nil
}

func (f *fakeAPI) AddRoom(_ context.Context, id string, in RoomInput) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := domain.Room{
		RoomID: f.id("room"), InspectionID: id, Name: in.Name, RoomType: in.RoomType,
		Position: len(f.detail.Rooms), Checklist: []domain.ChecklistItem{}, Photos: []domain.Photo{},
	}
	f.detail.Rooms = append(f.detail.Rooms, room)
	return &room, nil
}

func (f *fakeAPI) UpdateRoom(_ context.Context, roomID string, patch RoomPatch) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.detail.FindRoom(roomID)
	if room == nil {
		return nil, &statusErr{status: 404, msg: "room not found"}
	}
	if patch.Name != nil {
		room.Name = *patch.Name
	}
	if patch.RoomType != nil {
		room.RoomType = *patch.RoomType
	}
	if patch.Notes != nil {
		room.Notes = *patch.Notes
	}
	r := *room
	return &r, nil
}

func (f *fakeAPI) AddChecklistItem(_ context.Context, _, roomID string, in ItemInput) (*domain.ChecklistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.detail.FindRoom(roomID)
	if room == nil {
		return nil, &statusErr{status: 404, msg: "room not found"}
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.KindChecklistItem
	}
	item := domain.ChecklistItem{
		ItemID: f.id("item"), RoomID: roomID, Kind: kind, Description: in.Description,
		Status: domain.ChecklistPending, Severity: in.Severity, Position: len(room.Checklist),
	}
	room.Checklist = append(room.Checklist, item)
	return &item, nil
}

func (f *fakeAPI) UpdateChecklistItem(_ context.Context, _, roomID, itemID string, in ItemUpdate) (*domain.ChecklistItem, error) {
	f.mu.Lock()
	delay := f.updateDelay
	f.updates[itemID] = append(f.updates[itemID], in)
	err := f.updateErr
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.detail.FindRoom(roomID)
	if room == nil {
		return nil, &statusErr{status: 404, msg: "room not found"}
	}
	item := room.FindItem(itemID)
	if item == nil {
		return nil, &statusErr{status: 404, msg: "checklist item not found"}
	}
	item.Status = in.Status
	item.Notes = in.Notes
	out := *item
	return &out, nil
}

func (f *fakeAPI) DeleteChecklistItem(_ context.Context, _, roomID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.detail.FindRoom(roomID)
	if room == nil {
		return &statusErr{status: 404, msg: "room not found"}
	}
	for i := range room.Checklist {
		if room.Checklist[i].ItemID == itemID {
			room.Checklist = append(room.Checklist[:i], room.Checklist[i+1:]...)
			return nil
		}
	}
	return &statusErr{status: 404, msg: "checklist item not found"}
}

func (f *fakeAPI) AddIssue(_ context.Context, id string, in IssueInput) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := domain.Issue{
		IssueID: f.id("issue"), InspectionID: id, RoomID: in.RoomID, Title: in.Title,
		Description: in.Description, Severity: in.Severity, Photos: []domain.Photo{},
	}
	f.detail.Issues = append(f.detail.Issues, issue)
	return &issue, nil
}

func (f *fakeAPI) UploadPhotos(_ context.Context, files []Upload) (*UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	res := &UploadResult{}
	for range files {
		key := f.id("photo")
		res.URLs = append(res.URLs, "http://files.test/files/"+key+".png")
		res.Thumbnails = append(res.Thumbnails, "http://files.test/files/"+key+"_thumb.jpg")
	}
	return res, nil
}

func (f *fakeAPI) DeleteUpload(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedUploads = append(f.deletedUploads, url)
	return nil
}

func (f *fakeAPI) LinkPhoto(_ context.Context, id string, link PhotoLink) (*domain.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links++
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	photo := domain.Photo{
		PhotoID: f.id("p"), InspectionID: id, RoomID: link.RoomID, IssueID: link.IssueID,
		URL: link.URL, ThumbnailURL: link.ThumbnailURL, Caption: link.Caption,
	}
	if link.RoomID != "" {
		room := f.detail.FindRoom(link.RoomID)
		room.Photos = append(room.Photos, photo)
	}
	return &photo, nil
}

func (f *fakeAPI) UploadSignature(_ context.Context, _ string, _ Upload) (*domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signatures++
	if f.signatureErr != nil {
		return nil, f.signatureErr
	}
	f.detail.Inspection.SignatureURL = "http://files.test/files/signatures/insp-1/sig.png"
	insp := *f.detail.Inspection
	return &insp, nil
}

func (f *fakeAPI) GenerateSummary(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaryText, f.summaryErr
}

func (f *fakeAPI) Complete(_ context.Context, _ string, in CompleteInput) (*domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if f.detail.Inspection.Type.RequiresSignature() && f.detail.Inspection.SignatureURL == "" {
		return nil, &statusErr{status: 400, msg: "A tenant signature is required to complete this inspection"}
	}
	f.completed = append(f.completed, in)
	f.detail.Inspection.Status = domain.StatusCompleted
	f.detail.Inspection.Findings = in.Findings
	insp := *f.detail.Inspection
	return &insp, nil
}
