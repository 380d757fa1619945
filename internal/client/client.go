// Package client is the REST client for the inspection service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/conduct"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

const resultSuccess = 2000

// APIError 服务端返回的错误（非 2xx 或 code != 2000）
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// HTTPStatus lets callers classify the error without importing this package.
func (e *APIError) HTTPStatus() int { return e.Status }

// UserMessage is the server's message without status decoration.
func (e *APIError) UserMessage() string { return e.Message }

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client 检查服务 REST 客户端；不做重试，失败由调用方处理
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// 确保实现了接口
var _ conduct.API = (*Client)(nil)

// New creates a client for baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(60*time.Second). // 上传和 AI 总结可能较慢
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, logger: logger}
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out any) error {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		c.logger.Warn("Inspection API call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	var env envelope
	if uerr := json.Unmarshal(resp.Body(), &env); uerr != nil {
		if resp.IsError() {
			msg := strings.TrimSpace(resp.String())
			if msg == "" {
				msg = http.StatusText(resp.StatusCode())
			}
			return &APIError{Status: resp.StatusCode(), Code: -1, Message: msg}
		}
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, uerr)
	}
	if resp.IsError() || env.Code != resultSuccess {
		c.logger.Debug("Inspection API returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", env.Message),
		)
		return &APIError{Status: resp.StatusCode(), Code: env.Code, Message: env.Message}
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s %s result: %w", method, path, err)
	}
	return nil
}

func (c *Client) GetInspection(ctx context.Context, inspectionID string) (*domain.InspectionDetail, error) {
	var detail domain.InspectionDetail
	req := c.http.R().SetPathParam("id", inspectionID)
	if err := c.do(ctx, req, http.MethodGet, "/inspections/{id}", &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) UpdateStatus(ctx context.Context, inspectionID string, status domain.InspectionStatus) (*domain.Inspection, error) {
	var insp domain.Inspection
	req := c.http.R().SetPathParam("id", inspectionID).SetBody(map[string]string{"status": string(status)})
	if err := c.do(ctx, req, http.MethodPatch, "/inspections/{id}", &insp); err != nil {
		return nil, err
	}
	return &insp, nil
}

// ScheduleRequest 创建检查（供 seed 工具使用）
type ScheduleRequest struct {
	PropertyID  string                `json:"propertyId"`
	UnitID      string                `json:"unitId,omitempty"`
	Type        domain.InspectionType `json:"type"`
	ScheduledAt time.Time             `json:"scheduledAt"`
	Notes       string                `json:"notes,omitempty"`
}

func (c *Client) ScheduleInspection(ctx context.Context, in ScheduleRequest) (*domain.Inspection, error) {
	var insp domain.Inspection
	if err := c.do(ctx, c.http.R().SetBody(in), http.MethodPost, "/inspections", &insp); err != nil {
		return nil, err
	}
	return &insp, nil
}

func (c *Client) AddRoom(ctx context.Context, inspectionID string, in conduct.RoomInput) (*domain.Room, error) {
	var room domain.Room
	req := c.http.R().SetPathParam("id", inspectionID).SetBody(in)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/rooms", &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, roomID string, patch conduct.RoomPatch) (*domain.Room, error) {
	var room domain.Room
	req := c.http.R().SetPathParam("roomId", roomID).SetBody(patch)
	if err := c.do(ctx, req, http.MethodPatch, "/rooms/{roomId}", &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) checklistRequest(inspectionID, roomID string) *resty.Request {
	return c.http.R().SetPathParams(map[string]string{"id": inspectionID, "roomId": roomID})
}

func (c *Client) AddChecklistItem(ctx context.Context, inspectionID, roomID string, in conduct.ItemInput) (*domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	req := c.checklistRequest(inspectionID, roomID).SetBody(in)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/rooms/{roomId}/checklist", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateChecklistItem(ctx context.Context, inspectionID, roomID, itemID string, in conduct.ItemUpdate) (*domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	req := c.checklistRequest(inspectionID, roomID).SetPathParam("itemId", itemID).SetBody(in)
	if err := c.do(ctx, req, http.MethodPatch, "/inspections/{id}/rooms/{roomId}/checklist/{itemId}", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteChecklistItem(ctx context.Context, inspectionID, roomID, itemID string) error {
	req := c.checklistRequest(inspectionID, roomID).SetPathParam("itemId", itemID)
	return c.do(ctx, req, http.MethodDelete, "/inspections/{id}/rooms/{roomId}/checklist/{itemId}", nil)
}

func (c *Client) AddIssue(ctx context.Context, inspectionID string, in conduct.IssueInput) (*domain.Issue, error) {
	var issue domain.Issue
	req := c.http.R().SetPathParam("id", inspectionID).SetBody(in)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/issues", &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UploadPhotos 以 multipart 字段 photos 上传
func (c *Client) UploadPhotos(ctx context.Context, files []conduct.Upload) (*conduct.UploadResult, error) {
	req := c.http.R()
	for _, f := range files {
		req.SetMultipartField("photos", f.Name, f.ContentType, bytes.NewReader(f.Data))
	}
	var result conduct.UploadResult
	if err := c.do(ctx, req, http.MethodPost, "/uploads/inspection-photos", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteUpload(ctx context.Context, url string) error {
	req := c.http.R().SetQueryParam("url", url)
	return c.do(ctx, req, http.MethodDelete, "/uploads/inspection-photos", nil)
}

func (c *Client) LinkPhoto(ctx context.Context, inspectionID string, link conduct.PhotoLink) (*domain.Photo, error) {
	var photo domain.Photo
	req := c.http.R().SetPathParam("id", inspectionID).SetBody(link)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/photos", &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (c *Client) UploadSignature(ctx context.Context, inspectionID string, sig conduct.Upload) (*domain.Inspection, error) {
	var insp domain.Inspection
	req := c.http.R().
		SetPathParam("id", inspectionID).
		SetMultipartField("signature", sig.Name, sig.ContentType, bytes.NewReader(sig.Data))
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/signature", &insp); err != nil {
		return nil, err
	}
	return &insp, nil
}

func (c *Client) GenerateSummary(ctx context.Context, inspectionID string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	req := c.http.R().SetPathParam("id", inspectionID)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/generate-summary", &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) Complete(ctx context.Context, inspectionID string, in conduct.CompleteInput) (*domain.Inspection, error) {
	var insp domain.Inspection
	req := c.http.R().SetPathParam("id", inspectionID).SetBody(in)
	if err := c.do(ctx, req, http.MethodPost, "/inspections/{id}/complete", &insp); err != nil {
		return nil, err
	}
	return &insp, nil
}
