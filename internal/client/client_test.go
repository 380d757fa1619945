package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/conduct"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

func writeEnvelope(w http.ResponseWriter, status, code int, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "type": "success", "message": message, "result": result})
}

func newStub(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", zap.NewNop())
}

func TestUpdateChecklistItem_SendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(w, http.StatusOK, 2000, "ok", domain.ChecklistItem{ItemID: "item-1", Status: domain.ChecklistFailed, Notes: "leak"})
	})

	item, err := c.UpdateChecklistItem(context.Background(), "insp-1", "room-1", "item-1",
		conduct.ItemUpdate{Status: domain.ChecklistFailed, Notes: "leak"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/inspections/insp-1/rooms/room-1/checklist/item-1", gotPath)
	assert.Equal(t, map[string]string{"status": "FAILED", "notes": "leak"}, gotBody)
	assert.Equal(t, "leak", item.Notes)
}

func TestAPIErrorFromEnvelope(t *testing.T) {
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, -1, "inspection not found", nil)
	})

	_, err := c.GetInspection(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus())
	assert.Equal(t, -1, apiErr.Code)
	assert.Equal(t, "inspection not found", apiErr.Message)
}

func TestAPIErrorFromFailedCodeWith200(t *testing.T) {
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, -1, "rejected", nil)
	})
	err := c.DeleteUpload(context.Background(), "http://x/files/a.png")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "rejected", apiErr.Message)
}

func TestAPIErrorFromPlainTextGateway(t *testing.T) {
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.GenerateSummary(context.Background(), "insp-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestNetworkErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, zap.NewNop())

	_, err := c.GetInspection(context.Background(), "insp-1")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestUploadPhotos_Multipart(t *testing.T) {
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/uploads/inspection-photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["photos"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		f, err := files[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))
		writeEnvelope(w, http.StatusOK, 2000, "ok", map[string]any{
			"success": true, "urls": []string{"u1", "u2"}, "thumbnails": []string{"t1", ""},
		})
	})

	res, err := c.UploadPhotos(context.Background(), []conduct.Upload{
		{Name: "a.png", ContentType: "image/png", Data: []byte("png-bytes")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, res.URLs)
	assert.Equal(t, []string{"t1", ""}, res.Thumbnails)
}

func TestDeleteUpload_EscapesURL(t *testing.T) {
	var got string
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		got = r.URL.Query().Get("url")
		writeEnvelope(w, http.StatusOK, 2000, "ok", map[string]bool{"success": true})
	})
	require.NoError(t, c.DeleteUpload(context.Background(), "http://h/files/a b.png?x=1"))
	assert.Equal(t, "http://h/files/a b.png?x=1", got)
}

func TestGenerateSummaryAndComplete(t *testing.T) {
	c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/inspections/insp-1/generate-summary":
			writeEnvelope(w, http.StatusOK, 2000, "ok", map[string]string{"summary": "All good."})
		case "/api/inspections/insp-1/complete":
			var body conduct.CompleteInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "All good.", body.Findings)
			writeEnvelope(w, http.StatusOK, 2000, "ok", domain.Inspection{InspectionID: "insp-1", Status: domain.StatusCompleted})
		default:
			http.NotFound(w, r)
		}
	})

	text, err := c.GenerateSummary(context.Background(), "insp-1")
	require.NoError(t, err)
	assert.Equal(t, "All good.", text)

	insp, err := c.Complete(context.Background(), "insp-1", conduct.CompleteInput{Findings: text})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, insp.Status)
}
