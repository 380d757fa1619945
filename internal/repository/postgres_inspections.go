package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// PostgresInspectionsRepository 检查记录Repository实现
type PostgresInspectionsRepository struct {
	db *sql.DB
}

// NewPostgresInspectionsRepository 创建检查记录Repository
func NewPostgresInspectionsRepository(db *sql.DB) *PostgresInspectionsRepository {
	return &PostgresInspectionsRepository{db: db}
}

// 确保实现了接口
var _ InspectionsRepository = (*PostgresInspectionsRepository)(nil)

const inspectionColumns = `
	inspection_id::text,
	property_id,
	unit_id,
	inspection_type,
	status,
	scheduled_at,
	findings,
	notes,
	signature_url,
	completed_at,
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row rowScanner) (*domain.Inspection, error) {
	var insp domain.Inspection
	var unitID, findings, notes, signatureURL sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&insp.InspectionID,
		&insp.PropertyID,
		&unitID,
		&insp.Type,
		&insp.Status,
		&insp.ScheduledAt,
		&findings,
		&notes,
		&signatureURL,
		&completedAt,
		&insp.CreatedAt,
		&insp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	insp.UnitID = unitID.String
	insp.Findings = findings.String
	insp.Notes = notes.String
	insp.SignatureURL = signatureURL.String
	if completedAt.Valid {
		t := completedAt.Time
		insp.CompletedAt = &t
	}
	return &insp, nil
}

// GetInspection 获取检查记录
func (r *PostgresInspectionsRepository) GetInspection(ctx context.Context, inspectionID string) (*domain.Inspection, error) {
	if inspectionID == "" {
		return nil, fmt.Errorf("inspection %w", ErrNotFound)
	}

	query := `SELECT ` + inspectionColumns + `
		FROM inspections
		WHERE inspection_id = $1`

	insp, err := scanInspection(r.db.QueryRowContext(ctx, query, inspectionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inspection %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return insp, nil
}

// ListInspections 查询检查记录（支持过滤和分页）
func (r *PostgresInspectionsRepository) ListInspections(ctx context.Context, filters *InspectionFilters, page, size int) ([]*domain.Inspection, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filters != nil {
		if filters.PropertyID != "" {
			where = append(where, fmt.Sprintf("property_id = $%d", argN))
			args = append(args, filters.PropertyID)
			argN++
		}
		if filters.Status != "" {
			where = append(where, fmt.Sprintf("status = $%d", argN))
			args = append(args, string(filters.Status))
			argN++
		}
		if filters.Type != "" {
			where = append(where, fmt.Sprintf("inspection_type = $%d", argN))
			args = append(args, string(filters.Type))
			argN++
		}
	}

	queryCount := `SELECT COUNT(*) FROM inspections WHERE ` + strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count inspections: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	argsList := append(args, size, offset)
	query := `SELECT ` + inspectionColumns + `
		FROM inspections
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY scheduled_at DESC
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)

	rows, err := r.db.QueryContext(ctx, query, argsList...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inspections: %w", err)
	}
	defer rows.Close()

	var out []*domain.Inspection
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inspection: %w", err)
		}
		out = append(out, insp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate inspections: %w", err)
	}

	return out, total, nil
}

// CreateInspection 创建检查记录
func (r *PostgresInspectionsRepository) CreateInspection(ctx context.Context, insp *domain.Inspection) (string, error) {
	if insp.PropertyID == "" {
		return "", fmt.Errorf("property_id is required")
	}
	if !insp.Type.Valid() {
		return "", fmt.Errorf("invalid inspection type: %s", insp.Type)
	}
	if insp.Status == "" {
		insp.Status = domain.StatusScheduled
	}
	if insp.ScheduledAt.IsZero() {
		insp.ScheduledAt = time.Now()
	}

	query := `
		INSERT INTO inspections (
			property_id,
			unit_id,
			inspection_type,
			status,
			scheduled_at,
			notes
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING inspection_id::text
	`

	var inspectionID string
	err := r.db.QueryRowContext(ctx, query, insp.PropertyID, nullable(insp.UnitID), string(insp.Type),
		string(insp.Status), insp.ScheduledAt, nullable(insp.Notes)).Scan(&inspectionID)
	if err != nil {
		return "", fmt.Errorf("failed to create inspection: %w", err)
	}
	return inspectionID, nil
}

// SetInspectionStatus 更新检查状态（compare-and-set）
func (r *PostgresInspectionsRepository) SetInspectionStatus(ctx context.Context, inspectionID string, from, to domain.InspectionStatus) error {
	if inspectionID == "" {
		return fmt.Errorf("inspection_id is required")
	}

	query := `
		UPDATE inspections
		SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE inspection_id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, inspectionID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to set inspection status: %w", err)
	}
	return r.expectOneRow(ctx, result, inspectionID)
}

// SetSignature 保存签名地址
func (r *PostgresInspectionsRepository) SetSignature(ctx context.Context, inspectionID, url string) error {
	if inspectionID == "" {
		return fmt.Errorf("inspection_id is required")
	}

	query := `
		UPDATE inspections
		SET signature_url = $2, updated_at = CURRENT_TIMESTAMP
		WHERE inspection_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, inspectionID, url)
	if err != nil {
		return fmt.Errorf("failed to set signature: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inspection %w", ErrNotFound)
	}
	return nil
}

// CompleteInspection 完成检查
func (r *PostgresInspectionsRepository) CompleteInspection(ctx context.Context, inspectionID, findings, notes string, completedAt time.Time) error {
	if inspectionID == "" {
		return fmt.Errorf("inspection_id is required")
	}

	query := `
		UPDATE inspections
		SET status = 'COMPLETED',
			findings = $2,
			notes = COALESCE($3, notes),
			completed_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE inspection_id = $1 AND status IN ('IN_PROGRESS', 'REJECTED')
	`
	result, err := r.db.ExecContext(ctx, query, inspectionID, findings, nullable(notes), completedAt)
	if err != nil {
		return fmt.Errorf("failed to complete inspection: %w", err)
	}
	return r.expectOneRow(ctx, result, inspectionID)
}

// expectOneRow 区分「记录不存在」和「状态不匹配」
func (r *PostgresInspectionsRepository) expectOneRow(ctx context.Context, result sql.Result, inspectionID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM inspections WHERE inspection_id = $1)`, inspectionID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check inspection: %w", err)
	}
	if !exists {
		return fmt.Errorf("inspection %w", ErrNotFound)
	}
	return ErrStatusConflict
}
