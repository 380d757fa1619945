package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// PostgresChecklistRepository 检查项Repository实现
type PostgresChecklistRepository struct {
	db *sql.DB
}

// NewPostgresChecklistRepository 创建检查项Repository
func NewPostgresChecklistRepository(db *sql.DB) *PostgresChecklistRepository {
	return &PostgresChecklistRepository{db: db}
}

var _ ChecklistRepository = (*PostgresChecklistRepository)(nil)

const checklistColumns = `
	ci.item_id::text,
	ci.room_id::text,
	ci.kind,
	ci.description,
	ci.status,
	ci.notes,
	ci.severity,
	ci.position,
	ci.updated_at`

func scanChecklistItem(row rowScanner) (*domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	var notes, severity sql.NullString
	if err := row.Scan(
		&item.ItemID,
		&item.RoomID,
		&item.Kind,
		&item.Description,
		&item.Status,
		&notes,
		&severity,
		&item.Position,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Notes = notes.String
	item.Severity = domain.IssueSeverity(severity.String)
	return &item, nil
}

// ListItemsByInspection 查询检查下所有检查项
func (r *PostgresChecklistRepository) ListItemsByInspection(ctx context.Context, inspectionID string) ([]*domain.ChecklistItem, error) {
	if inspectionID == "" {
		return []*domain.ChecklistItem{}, nil
	}

	query := `SELECT ` + checklistColumns + `
		FROM checklist_items ci
		JOIN inspection_rooms ir ON ir.room_id = ci.room_id
		WHERE ir.inspection_id = $1
		ORDER BY ir.position ASC, ci.position ASC`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	defer rows.Close()

	items := []*domain.ChecklistItem{}
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checklist items: %w", err)
	}
	return items, nil
}

// GetItem 获取检查项
func (r *PostgresChecklistRepository) GetItem(ctx context.Context, itemID string) (*domain.ChecklistItem, error) {
	if itemID == "" {
		return nil, fmt.Errorf("checklist item %w", ErrNotFound)
	}
	query := `SELECT ` + checklistColumns + `
		FROM checklist_items ci
		WHERE ci.item_id = $1`

	item, err := scanChecklistItem(r.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checklist item %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}
	return item, nil
}

// AppendItem 追加检查项（不去重：同一模板调用两次会得到两份）
func (r *PostgresChecklistRepository) AppendItem(ctx context.Context, item *domain.ChecklistItem) (string, error) {
	if item.RoomID == "" {
		return "", fmt.Errorf("room_id is required")
	}
	if strings.TrimSpace(item.Description) == "" {
		return "", fmt.Errorf("description is required")
	}
	if item.Kind == "" {
		item.Kind = domain.KindChecklistItem
	}

	query := `
		INSERT INTO checklist_items (room_id, kind, description, status, severity, position)
		VALUES ($1, $2, $3, 'PENDING', $4,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM checklist_items WHERE room_id = $1))
		RETURNING item_id::text
	`

	var itemID string
	err := r.db.QueryRowContext(ctx, query, item.RoomID, string(item.Kind), item.Description,
		nullable(string(item.Severity))).Scan(&itemID)
	if err != nil {
		return "", fmt.Errorf("failed to create checklist item: %w", err)
	}
	return itemID, nil
}

// UpdateItem 更新检查项状态和备注
func (r *PostgresChecklistRepository) UpdateItem(ctx context.Context, roomID, itemID string, status domain.ChecklistStatus, notes string) (*domain.ChecklistItem, error) {
	if roomID == "" || itemID == "" {
		return nil, fmt.Errorf("room_id and item_id are required")
	}

	query := `
		UPDATE checklist_items ci
		SET status = $3, notes = $4, updated_at = CURRENT_TIMESTAMP
		WHERE ci.room_id = $1 AND ci.item_id = $2
		RETURNING ` + checklistColumns

	item, err := scanChecklistItem(r.db.QueryRowContext(ctx, query, roomID, itemID, string(status), nullable(notes)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checklist item %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}
	return item, nil
}

// DeleteItem 删除检查项
func (r *PostgresChecklistRepository) DeleteItem(ctx context.Context, roomID, itemID string) error {
	if roomID == "" || itemID == "" {
		return fmt.Errorf("room_id and item_id are required")
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM checklist_items WHERE room_id = $1 AND item_id = $2`, roomID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("checklist item %w", ErrNotFound)
	}
	return nil
}
