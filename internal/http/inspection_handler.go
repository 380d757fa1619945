package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/service"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
)

const (
	photosField    = "photos"
	signatureField = "signature"
	// multipart 在内存中保留的上限，超出部分写临时文件
	multipartMemory = 32 << 20
)

// InspectionHandler 检查 REST 接口
type InspectionHandler struct {
	svc           *service.InspectionService
	validate      *validator.Validate
	filesDir      string // 本地存储目录；为空时不提供 /files/
	publicBaseURL string
	logger        *zap.Logger
}

func NewInspectionHandler(svc *service.InspectionService, filesDir, publicBaseURL string, logger *zap.Logger) *InspectionHandler {
	return &InspectionHandler{
		svc:           svc,
		validate:      newValidator(),
		filesDir:      filesDir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Register mounts every route: API under /api, local files under /files/.
func (h *InspectionHandler) Register(r *Router) {
	r.Route(http.MethodGet, "/healthz", NoStore, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})

	r.Route(http.MethodGet, "/api/inspections", Private(10*time.Second), h.listInspections)
	r.Route(http.MethodPost, "/api/inspections", NoStore, h.scheduleInspection)
	r.Route(http.MethodGet, "/api/inspections/{id}", ETag, h.getInspection)
	r.Route(http.MethodPatch, "/api/inspections/{id}", NoStore, h.updateStatus)

	r.Route(http.MethodGet, "/api/inspections/{id}/rooms", ETag, h.listRooms)
	r.Route(http.MethodPost, "/api/inspections/{id}/rooms", NoStore, h.addRoom)
	r.Route(http.MethodPatch, "/api/rooms/{roomId}", NoStore, h.updateRoom)

	r.Route(http.MethodPost, "/api/inspections/{id}/rooms/{roomId}/checklist", NoStore, h.addChecklistItem)
	r.Route(http.MethodPatch, "/api/inspections/{id}/rooms/{roomId}/checklist/{itemId}", NoStore, h.updateChecklistItem)
	r.Route(http.MethodDelete, "/api/inspections/{id}/rooms/{roomId}/checklist/{itemId}", NoStore, h.deleteChecklistItem)

	r.Route(http.MethodGet, "/api/inspections/{id}/issues", ETag, h.listIssues)
	r.Route(http.MethodPost, "/api/inspections/{id}/issues", NoStore, h.addIssue)

	r.Route(http.MethodPost, "/api/uploads/inspection-photos", NoStore, h.uploadPhotos)
	r.Route(http.MethodDelete, "/api/uploads/inspection-photos", NoStore, h.deleteUpload)
	r.Route(http.MethodPost, "/api/inspections/{id}/photos", NoStore, h.linkPhoto)
	r.Route(http.MethodPost, "/api/inspections/{id}/signature", NoStore, h.saveSignature)

	r.Route(http.MethodPost, "/api/inspections/{id}/generate-summary", NoStore, h.generateSummary)
	r.Route(http.MethodPost, "/api/inspections/{id}/complete", NoStore, h.complete)

	r.Route(http.MethodGet, "/api/templates/checklist", StaleWhileRevalidate(5*time.Minute, time.Hour), h.checklistTemplate)
	r.Route(http.MethodGet, "/api/inspections/{id}/report.xlsx", Private(time.Minute), h.exportWorkbook)
	r.Route(http.MethodGet, "/api/inspections/{id}/report.pdf", Private(time.Minute), h.exportPDF)

	if h.filesDir != "" {
		files := http.StripPrefix("/files/", http.FileServer(http.Dir(h.filesDir)))
		r.PathPrefix("/files/").Handler(CacheControl(Immutable)(files)).Methods(http.MethodGet, http.MethodHead)
	}
}

// decode 读取并校验 JSON 请求体；失败时已写出 400
func (h *InspectionHandler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := readBodyJSON(r, maxJSONBody, out); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(validationMessage(err)))
		return false
	}
	return true
}

// ---------- inspections ----------

func (h *InspectionHandler) listInspections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.svc.ListInspections(r.Context(), service.ListInspectionsRequest{
		PropertyID: q.Get("propertyId"),
		Status:     q.Get("status"),
		Type:       q.Get("type"),
		Page:       parseInt(q.Get("page"), 1),
		Size:       parseInt(q.Get("size"), 20),
	})
	if err != nil {
		writeError(w, h.logger, "ListInspections", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type scheduleInspectionBody struct {
	PropertyID  string    `json:"propertyId" validate:"required"`
	UnitID      string    `json:"unitId"`
	Type        string    `json:"type" validate:"required"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

func (h *InspectionHandler) scheduleInspection(w http.ResponseWriter, r *http.Request) {
	var body scheduleInspectionBody
	if !h.decode(w, r, &body) {
		return
	}
	if body.ScheduledAt.IsZero() {
		body.ScheduledAt = time.Now().UTC()
	}
	insp, err := h.svc.ScheduleInspection(r.Context(), service.ScheduleInspectionRequest{
		PropertyID:  body.PropertyID,
		UnitID:      body.UnitID,
		Type:        body.Type,
		ScheduledAt: body.ScheduledAt,
		Notes:       body.Notes,
	})
	if err != nil {
		writeError(w, h.logger, "ScheduleInspection", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(insp))
}

func (h *InspectionHandler) getInspection(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetInspectionDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, "GetInspectionDetail", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

type updateStatusBody struct {
	Status string `json:"status" validate:"required"`
}

func (h *InspectionHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body updateStatusBody
	if !h.decode(w, r, &body) {
		return
	}
	insp, err := h.svc.UpdateStatus(r.Context(), service.UpdateStatusRequest{
		InspectionID: mux.Vars(r)["id"],
		Status:       body.Status,
	})
	if err != nil {
		writeError(w, h.logger, "UpdateStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(insp))
}

// ---------- rooms & checklist ----------

func (h *InspectionHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.ListRooms(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, "ListRooms", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rooms))
}

type addRoomBody struct {
	Name     string `json:"name" validate:"required,max=120"`
	RoomType string `json:"roomType" validate:"required"`
	Notes    string `json:"notes" validate:"max=2000"`
}

func (h *InspectionHandler) addRoom(w http.ResponseWriter, r *http.Request) {
	var body addRoomBody
	if !h.decode(w, r, &body) {
		return
	}
	room, err := h.svc.AddRoom(r.Context(), service.AddRoomRequest{
		InspectionID: mux.Vars(r)["id"],
		Name:         body.Name,
		RoomType:     body.RoomType,
		Notes:        body.Notes,
	})
	if err != nil {
		writeError(w, h.logger, "AddRoom", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(room))
}

type updateRoomBody struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	RoomType *string `json:"roomType"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *InspectionHandler) updateRoom(w http.ResponseWriter, r *http.Request) {
	var body updateRoomBody
	if !h.decode(w, r, &body) {
		return
	}
	room, err := h.svc.UpdateRoom(r.Context(), service.UpdateRoomRequest{
		RoomID:   mux.Vars(r)["roomId"],
		Name:     body.Name,
		RoomType: body.RoomType,
		Notes:    body.Notes,
	})
	if err != nil {
		writeError(w, h.logger, "UpdateRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(room))
}

type addChecklistItemBody struct {
	Description string `json:"description" validate:"required,max=500"`
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
}

func (h *InspectionHandler) addChecklistItem(w http.ResponseWriter, r *http.Request) {
	var body addChecklistItemBody
	if !h.decode(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	item, err := h.svc.AddChecklistItem(r.Context(), service.AddChecklistItemRequest{
		InspectionID: vars["id"],
		RoomID:       vars["roomId"],
		Description:  body.Description,
		Kind:         body.Kind,
		Severity:     body.Severity,
	})
	if err != nil {
		writeError(w, h.logger, "AddChecklistItem", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(item))
}

type updateChecklistItemBody struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=2000"`
}

func (h *InspectionHandler) updateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var body updateChecklistItemBody
	if !h.decode(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	item, err := h.svc.UpdateChecklistItem(r.Context(), service.UpdateChecklistItemRequest{
		InspectionID: vars["id"],
		RoomID:       vars["roomId"],
		ItemID:       vars["itemId"],
		Status:       body.Status,
		Notes:        body.Notes,
	})
	if err != nil {
		writeError(w, h.logger, "UpdateChecklistItem", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *InspectionHandler) deleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteChecklistItem(r.Context(), vars["id"], vars["roomId"], vars["itemId"]); err != nil {
		writeError(w, h.logger, "DeleteChecklistItem", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"success": true}))
}

// ---------- issues ----------

func (h *InspectionHandler) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.ListIssues(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, "ListIssues", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(issues))
}

type addIssueBody struct {
	RoomID      string `json:"roomId"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Severity    string `json:"severity" validate:"required"`
}

func (h *InspectionHandler) addIssue(w http.ResponseWriter, r *http.Request) {
	var body addIssueBody
	if !h.decode(w, r, &body) {
		return
	}
	issue, err := h.svc.AddIssue(r.Context(), service.AddIssueRequest{
		InspectionID: mux.Vars(r)["id"],
		RoomID:       body.RoomID,
		Title:        body.Title,
		Description:  body.Description,
		Severity:     body.Severity,
	})
	if err != nil {
		writeError(w, h.logger, "AddIssue", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(issue))
}

// ---------- uploads ----------

// readFiles 读取 multipart 字段；单文件多读 1 字节以便服务层给出超限提示
func readFiles(headers []*multipart.FileHeader) ([]service.UploadFile, error) {
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func (h *InspectionHandler) parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Fail(storage.ErrImageTooLarge.Error()))
			return false
		}
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart body"))
		return false
	}
	return true
}

func (h *InspectionHandler) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	// 每个文件多留 1 字节，加 1MB 给表单开销
	if !h.parseMultipart(w, r, service.MaxPhotosPerUpload*(storage.MaxImageSize+1)+1<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readFiles(r.MultipartForm.File[photosField])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read upload"))
		return
	}
	resp, err := h.svc.UploadPhotos(r.Context(), files)
	if err != nil {
		writeError(w, h.logger, "UploadPhotos", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *InspectionHandler) deleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUpload(r.Context(), r.URL.Query().Get("url")); err != nil {
		writeError(w, h.logger, "DeleteUpload", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"success": true}))
}

type linkPhotoBody struct {
	RoomID       string `json:"roomId" validate:"required_without=IssueID"`
	IssueID      string `json:"issueId" validate:"required_without=RoomID"`
	URL          string `json:"url" validate:"required"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Caption      string `json:"caption" validate:"max=500"`
}

func (h *InspectionHandler) linkPhoto(w http.ResponseWriter, r *http.Request) {
	var body linkPhotoBody
	if !h.decode(w, r, &body) {
		return
	}
	photo, err := h.svc.LinkPhoto(r.Context(), service.LinkPhotoRequest{
		InspectionID: mux.Vars(r)["id"],
		RoomID:       body.RoomID,
		IssueID:      body.IssueID,
		URL:          body.URL,
		ThumbnailURL: body.ThumbnailURL,
		Caption:      body.Caption,
	})
	if err != nil {
		writeError(w, h.logger, "LinkPhoto", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(photo))
}

func (h *InspectionHandler) saveSignature(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r, storage.MaxImageSize+1+1<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[signatureField]
	if len(headers) != 1 {
		writeJSON(w, http.StatusBadRequest, Fail("exactly one signature file is required"))
		return
	}
	files, err := readFiles(headers)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read upload"))
		return
	}
	insp, err := h.svc.SaveSignature(r.Context(), service.SaveSignatureRequest{
		InspectionID: mux.Vars(r)["id"],
		File:         files[0],
	})
	if err != nil {
		writeError(w, h.logger, "SaveSignature", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(insp))
}

// ---------- summary & completion ----------

func (h *InspectionHandler) generateSummary(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.GenerateSummary(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, "GenerateSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"summary": text}))
}

type completeBody struct {
	Findings string `json:"findings" validate:"required"`
	Notes    string `json:"notes" validate:"max=5000"`
}

func (h *InspectionHandler) complete(w http.ResponseWriter, r *http.Request) {
	var body completeBody
	if !h.decode(w, r, &body) {
		return
	}
	insp, err := h.svc.Complete(r.Context(), service.CompleteRequest{
		InspectionID: mux.Vars(r)["id"],
		Findings:     body.Findings,
		Notes:        body.Notes,
	})
	if err != nil {
		writeError(w, h.logger, "Complete", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(insp))
}

// ---------- templates & reports ----------

func (h *InspectionHandler) checklistTemplate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ChecklistTemplate(q.Get("type"), q.Get("roomType"))
	if err != nil {
		writeError(w, h.logger, "ChecklistTemplate", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *InspectionHandler) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.svc.ExportWorkbook(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "ExportWorkbook", err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "inspection-"+id+".xlsx", data)
}

func (h *InspectionHandler) exportPDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.svc.ExportPDF(r.Context(), id, h.detailURL(r, id))
	if err != nil {
		writeError(w, h.logger, "ExportPDF", err)
		return
	}
	writeAttachment(w, "application/pdf", "inspection-"+id+".pdf", data)
}

// detailURL 用于报告二维码；未配置 publicBaseURL 时按请求推断
func (h *InspectionHandler) detailURL(r *http.Request, id string) string {
	base := h.publicBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/api/inspections/" + id
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
