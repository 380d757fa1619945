package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// PostgresPhotosRepository 照片Repository实现
type PostgresPhotosRepository struct {
	db *sql.DB
}

// NewPostgresPhotosRepository 创建照片Repository
func NewPostgresPhotosRepository(db *sql.DB) *PostgresPhotosRepository {
	return &PostgresPhotosRepository{db: db}
}

var _ PhotosRepository = (*PostgresPhotosRepository)(nil)

// ListPhotos 查询检查下的所有照片
func (r *PostgresPhotosRepository) ListPhotos(ctx context.Context, inspectionID string) ([]*domain.Photo, error) {
	if inspectionID == "" {
		return []*domain.Photo{}, nil
	}

	query := `
		SELECT
			photo_id::text,
			inspection_id::text,
			room_id::text,
			issue_id::text,
			url,
			thumbnail_url,
			caption,
			created_at
		FROM inspection_photos
		WHERE inspection_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	photos := []*domain.Photo{}
	for rows.Next() {
		var p domain.Photo
		var roomID, issueID, thumb, caption sql.NullString
		if err := rows.Scan(&p.PhotoID, &p.InspectionID, &roomID, &issueID, &p.URL, &thumb, &caption, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		p.RoomID = roomID.String
		p.IssueID = issueID.String
		p.ThumbnailURL = thumb.String
		p.Caption = caption.String
		photos = append(photos, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}
	return photos, nil
}

// CreatePhoto 关联照片（上传后调用）
func (r *PostgresPhotosRepository) CreatePhoto(ctx context.Context, photo *domain.Photo) (string, error) {
	if photo.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if photo.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if photo.RoomID == "" && photo.IssueID == "" {
		return "", fmt.Errorf("room_id or issue_id is required")
	}

	query := `
		INSERT INTO inspection_photos (inspection_id, room_id, issue_id, url, thumbnail_url, caption)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING photo_id::text
	`

	var photoID string
	err := r.db.QueryRowContext(ctx, query, photo.InspectionID, nullable(photo.RoomID), nullable(photo.IssueID),
		photo.URL, nullable(photo.ThumbnailURL), nullable(photo.Caption)).Scan(&photoID)
	if err != nil {
		return "", fmt.Errorf("failed to create photo: %w", err)
	}
	return photoID, nil
}

// URLReferenced 检查上传文件是否已关联（照片原图、缩略图或签名）
func (r *PostgresPhotosRepository) URLReferenced(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	query := `
		SELECT
			EXISTS (SELECT 1 FROM inspection_photos WHERE url = $1 OR thumbnail_url = $1)
			OR EXISTS (SELECT 1 FROM inspections WHERE signature_url = $1)
	`

	var referenced bool
	if err := r.db.QueryRowContext(ctx, query, url).Scan(&referenced); err != nil {
		return false, fmt.Errorf("failed to check upload references: %w", err)
	}
	return referenced, nil
}
