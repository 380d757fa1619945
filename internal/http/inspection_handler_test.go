package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/repository"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/service"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/summary"
)

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, string) (string, error) { return g.text, g.err }

type apiFixture struct {
	server *httptest.Server
}

func newAPI(t *testing.T, gen summary.Generator) *apiFixture {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir, "http://files.test")
	require.NoError(t, err)
	svc := service.NewInspectionService(service.Deps{
		Repos:     repository.NewMemoryRepositories(),
		Files:     files,
		Generator: gen,
	}, zap.NewNop())

	r := NewRouter(zap.NewNop())
	NewInspectionHandler(svc, dir, "http://files.test", zap.NewNop()).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResult[T any](t *testing.T, resp *http.Response) Result[T] {
	t.Helper()
	var out Result[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) startInspection(t *testing.T, typ domain.InspectionType) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/inspections", map[string]string{"propertyId": "prop-1", "type": string(typ)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	insp := decodeResult[domain.Inspection](t, resp).Result

	resp = f.do(t, http.MethodPatch, "/api/inspections/"+insp.InspectionID, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return insp.InspectionID
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(20, 10, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, ResultSuccess, decodeResult[map[string]string](t, resp).Code)
}

func TestInspectionDetail_ETagAndErrors(t *testing.T) {
	f := newAPI(t, nil)
	id := f.startInspection(t, domain.InspectionRoutine)

	resp := f.do(t, http.MethodGet, "/api/inspections/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tag := resp.Header.Get("ETag")
	require.NotEmpty(t, tag)
	detail := decodeResult[domain.InspectionDetail](t, resp).Result
	assert.Equal(t, domain.StatusInProgress, detail.Inspection.Status)

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/inspections/"+id, nil)
	req.Header.Set("If-None-Match", tag)
	notModified, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	notModified.Body.Close()
	assert.Equal(t, http.StatusNotModified, notModified.StatusCode)

	// adding a room changes the representation
	resp = f.do(t, http.MethodPost, "/api/inspections/"+id+"/rooms", map[string]string{"name": "Kitchen", "roomType": "KITCHEN"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/inspections/"+id, nil)
	assert.NotEqual(t, tag, resp.Header.Get("ETag"))

	missing := f.do(t, http.MethodGet, "/api/inspections/missing", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, ResultError, decodeResult[any](t, missing).Code)

	illegal := f.do(t, http.MethodPatch, "/api/inspections/"+id, map[string]string{"status": "SCHEDULED"})
	assert.Equal(t, http.StatusConflict, illegal.StatusCode)

	viaPatch := f.do(t, http.MethodPatch, "/api/inspections/"+id, map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusBadRequest, viaPatch.StatusCode)
}

func TestRoomsAndChecklist(t *testing.T) {
	f := newAPI(t, nil)
	id := f.startInspection(t, domain.InspectionRoutine)

	invalid := f.do(t, http.MethodPost, "/api/inspections/"+id+"/rooms", map[string]string{"name": "Kitchen"})
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
	assert.Equal(t, "roomType is required", decodeResult[any](t, invalid).Message)

	resp := f.do(t, http.MethodPost, "/api/inspections/"+id+"/rooms", map[string]string{"name": "Kitchen", "roomType": "KITCHEN"})
	room := decodeResult[domain.Room](t, resp).Result

	renamed := "Main kitchen"
	resp = f.do(t, http.MethodPatch, "/api/rooms/"+room.RoomID, map[string]*string{"name": &renamed})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, renamed, decodeResult[domain.Room](t, resp).Result.Name)

	base := "/api/inspections/" + id + "/rooms/" + room.RoomID + "/checklist"
	resp = f.do(t, http.MethodPost, base, map[string]string{"description": "Sink"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decodeResult[domain.ChecklistItem](t, resp).Result
	assert.Equal(t, domain.ChecklistPending, item.Status)

	resp = f.do(t, http.MethodPatch, base+"/"+item.ItemID, map[string]string{"status": "FAILED", "notes": "leak"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeResult[domain.ChecklistItem](t, resp).Result
	assert.Equal(t, domain.ChecklistFailed, updated.Status)
	assert.Equal(t, "leak", updated.Notes)

	resp = f.do(t, http.MethodGet, "/api/inspections/"+id+"/rooms", nil)
	rooms := decodeResult[[]domain.Room](t, resp).Result
	require.Len(t, rooms, 1)
	require.Len(t, rooms[0].Checklist, 1)
	assert.Equal(t, "leak", rooms[0].Checklist[0].Notes)

	resp = f.do(t, http.MethodDelete, base+"/"+item.ItemID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodDelete, base+"/"+item.ItemID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIssuesAndPhotoLinking(t *testing.T) {
	f := newAPI(t, nil)
	id := f.startInspection(t, domain.InspectionRoutine)

	resp := f.do(t, http.MethodPost, "/api/inspections/"+id+"/issues", map[string]string{"title": "Cracked tile", "severity": "HIGH"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issue := decodeResult[domain.Issue](t, resp).Result

	noTarget := f.do(t, http.MethodPost, "/api/inspections/"+id+"/photos", map[string]string{"url": "http://files.test/files/a.png"})
	assert.Equal(t, http.StatusBadRequest, noTarget.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/inspections/"+id+"/photos", map[string]string{
		"issueId": issue.IssueID, "url": "http://files.test/files/a.png", "caption": "tile",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	linked := f.do(t, http.MethodDelete, "/api/uploads/inspection-photos?url="+url.QueryEscape("http://files.test/files/a.png"), nil)
	assert.Equal(t, http.StatusConflict, linked.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/inspections/"+id+"/issues", nil)
	issues := decodeResult[[]domain.Issue](t, resp).Result
	require.Len(t, issues, 1)
	assert.Len(t, issues[0].Photos, 1)
}

func TestUploadPhotos_StoresAndServesFiles(t *testing.T) {
	f := newAPI(t, nil)

	body, ct := multipartBody(t, photosField, "room.png", "image/png", pngBytes(t))
	resp, err := http.Post(f.server.URL+"/api/uploads/inspection-photos", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	uploaded := decodeResult[service.UploadPhotosResponse](t, resp).Result
	require.True(t, uploaded.Success)
	require.Len(t, uploaded.URLs, 1)

	u, err := url.Parse(uploaded.URLs[0])
	require.NoError(t, err)
	file, err := http.Get(f.server.URL + u.Path)
	require.NoError(t, err)
	defer file.Body.Close()
	assert.Equal(t, http.StatusOK, file.StatusCode)
	assert.Equal(t, "public, max-age=31536000, immutable", file.Header.Get("Cache-Control"))

	del := f.do(t, http.MethodDelete, "/api/uploads/inspection-photos?url="+url.QueryEscape(uploaded.URLs[0]), nil)
	assert.Equal(t, http.StatusOK, del.StatusCode)
	gone, err := http.Get(f.server.URL + u.Path)
	require.NoError(t, err)
	gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestUploadPhotos_RejectsOversizeAndType(t *testing.T) {
	f := newAPI(t, nil)

	big := make([]byte, 15*1024*1024)
	body, ct := multipartBody(t, photosField, "big.jpg", "image/jpeg", big)
	resp, err := http.Post(f.server.URL+"/api/uploads/inspection-photos", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File size must be less than 10MB", decodeResult[any](t, resp).Message)

	body, ct = multipartBody(t, photosField, "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	resp2, err := http.Post(f.server.URL+"/api/uploads/inspection-photos", ct, body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "Only JPEG, PNG and WebP images are allowed", decodeResult[any](t, resp2).Message)
}

func TestSignatureAndComplete(t *testing.T) {
	f := newAPI(t, nil)
	id := f.startInspection(t, domain.InspectionMoveIn)

	missingFindings := f.do(t, http.MethodPost, "/api/inspections/"+id+"/complete", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, missingFindings.StatusCode)

	unsigned := f.do(t, http.MethodPost, "/api/inspections/"+id+"/complete", map[string]string{"findings": "ok"})
	assert.Equal(t, http.StatusBadRequest, unsigned.StatusCode)

	body, ct := multipartBody(t, signatureField, "signature.png", "image/png", pngBytes(t))
	resp, err := http.Post(f.server.URL+"/api/inspections/"+id+"/signature", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeResult[domain.Inspection](t, resp).Result.SignatureURL)

	done := f.do(t, http.MethodPost, "/api/inspections/"+id+"/complete", map[string]string{"findings": "ok", "notes": "keys returned"})
	require.Equal(t, http.StatusOK, done.StatusCode)
	insp := decodeResult[domain.Inspection](t, done).Result
	assert.Equal(t, domain.StatusCompleted, insp.Status)
	assert.NotNil(t, insp.CompletedAt)

	frozen := f.do(t, http.MethodPost, "/api/inspections/"+id+"/rooms", map[string]string{"name": "Late", "roomType": "OTHER"})
	assert.Equal(t, http.StatusConflict, frozen.StatusCode)
}

func TestGenerateSummary_Statuses(t *testing.T) {
	unavailable := newAPI(t, nil)
	id := unavailable.startInspection(t, domain.InspectionRoutine)
	resp := unavailable.do(t, http.MethodPost, "/api/inspections/"+id+"/generate-summary", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	failing := newAPI(t, stubGenerator{err: errors.New("quota exceeded")})
	id = failing.startInspection(t, domain.InspectionRoutine)
	resp = failing.do(t, http.MethodPost, "/api/inspections/"+id+"/generate-summary", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	working := newAPI(t, stubGenerator{text: "Everything passed."})
	id = working.startInspection(t, domain.InspectionRoutine)
	resp = working.do(t, http.MethodPost, "/api/inspections/"+id+"/generate-summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Everything passed.", decodeResult[map[string]string](t, resp).Result["summary"])
}

func TestTemplatesAndReports(t *testing.T) {
	f := newAPI(t, nil)
	id := f.startInspection(t, domain.InspectionRoutine)

	resp := f.do(t, http.MethodGet, "/api/templates/checklist?type=ROUTINE&roomType=KITCHEN", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=300, stale-while-revalidate=3600", resp.Header.Get("Cache-Control"))
	assert.Len(t, decodeResult[[]string](t, resp).Result, 12)

	xlsx := f.do(t, http.MethodGet, "/api/inspections/"+id+"/report.xlsx", nil)
	require.Equal(t, http.StatusOK, xlsx.StatusCode)
	assert.Equal(t, "private, max-age=60", xlsx.Header.Get("Cache-Control"))
	assert.Contains(t, xlsx.Header.Get("Content-Disposition"), ".xlsx")

	pdf := f.do(t, http.MethodGet, "/api/inspections/"+id+"/report.pdf", nil)
	require.Equal(t, http.StatusOK, pdf.StatusCode)
	raw, err := io.ReadAll(pdf.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

func TestListInspections(t *testing.T) {
	f := newAPI(t, nil)
	f.startInspection(t, domain.InspectionRoutine)
	f.startInspection(t, domain.InspectionMoveOut)

	resp := f.do(t, http.MethodGet, "/api/inspections?type=MOVE_OUT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeResult[service.ListInspectionsResponse](t, resp).Result
	assert.Equal(t, 1, list.Total)

	bad := f.do(t, http.MethodGet, "/api/inspections?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
