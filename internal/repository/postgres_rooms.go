package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// PostgresRoomsRepository 房间Repository实现
type PostgresRoomsRepository struct {
	db *sql.DB
}

// NewPostgresRoomsRepository 创建房间Repository
func NewPostgresRoomsRepository(db *sql.DB) *PostgresRoomsRepository {
	return &PostgresRoomsRepository{db: db}
}

var _ RoomsRepository = (*PostgresRoomsRepository)(nil)

const roomColumns = `
	room_id::text,
	inspection_id::text,
	name,
	room_type,
	notes,
	position,
	created_at`

func scanRoom(row rowScanner) (*domain.Room, error) {
	var room domain.Room
	var notes sql.NullString
	if err := row.Scan(
		&room.RoomID,
		&room.InspectionID,
		&room.Name,
		&room.RoomType,
		&notes,
		&room.Position,
		&room.CreatedAt,
	); err != nil {
		return nil, err
	}
	room.Notes = notes.String
	return &room, nil
}

// ListRooms 按 position 返回检查下的房间
func (r *PostgresRoomsRepository) ListRooms(ctx context.Context, inspectionID string) ([]*domain.Room, error) {
	if inspectionID == "" {
		return []*domain.Room{}, nil
	}

	query := `SELECT ` + roomColumns + `
		FROM inspection_rooms
		WHERE inspection_id = $1
		ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom 获取房间
func (r *PostgresRoomsRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room %w", ErrNotFound)
	}

	query := `SELECT ` + roomColumns + `
		FROM inspection_rooms
		WHERE room_id = $1`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// CreateRoom 创建房间（追加到末尾）
func (r *PostgresRoomsRepository) CreateRoom(ctx context.Context, room *domain.Room) (string, error) {
	if room.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if strings.TrimSpace(room.Name) == "" {
		return "", fmt.Errorf("name is required")
	}

	query := `
		INSERT INTO inspection_rooms (inspection_id, name, room_type, notes, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COUNT(*) FROM inspection_rooms WHERE inspection_id = $1))
		RETURNING room_id::text
	`

	var roomID string
	err := r.db.QueryRowContext(ctx, query, room.InspectionID, room.Name, string(room.RoomType),
		nullable(room.Notes)).Scan(&roomID)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	return roomID, nil
}

// UpdateRoom 部分更新房间
func (r *PostgresRoomsRepository) UpdateRoom(ctx context.Context, roomID string, patch RoomPatch) error {
	if roomID == "" {
		return fmt.Errorf("room_id is required")
	}

	set := []string{}
	args := []any{roomID}
	argN := 2
	if patch.Name != nil {
		set = append(set, fmt.Sprintf("name = $%d", argN))
		args = append(args, *patch.Name)
		argN++
	}
	if patch.RoomType != nil {
		set = append(set, fmt.Sprintf("room_type = $%d", argN))
		args = append(args, string(*patch.RoomType))
		argN++
	}
	if patch.Notes != nil {
		set = append(set, fmt.Sprintf("notes = $%d", argN))
		args = append(args, nullable(*patch.Notes))
		argN++
	}
	if len(set) == 0 {
		// nothing to change, still confirm the room exists
		_, err := r.GetRoom(ctx, roomID)
		return err
	}

	query := `UPDATE inspection_rooms SET ` + strings.Join(set, ", ") + ` WHERE room_id = $1`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("room %w", ErrNotFound)
	}
	return nil
}
