package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements 建表语句（幂等，服务启动时执行）
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inspections (
		inspection_id   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		property_id     VARCHAR(64) NOT NULL,
		unit_id         VARCHAR(64),
		inspection_type VARCHAR(20) NOT NULL,
		status          VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
		scheduled_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		findings        TEXT,
		notes           TEXT,
		signature_url   TEXT,
		completed_at    TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inspection_rooms (
		room_id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		inspection_id UUID NOT NULL REFERENCES inspections(inspection_id) ON DELETE CASCADE,
		name          VARCHAR(120) NOT NULL,
		room_type     VARCHAR(20) NOT NULL,
		notes         TEXT,
		position      INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_rooms_inspection ON inspection_rooms(inspection_id, position)`,
	`CREATE TABLE IF NOT EXISTS checklist_items (
		item_id     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		room_id     UUID NOT NULL REFERENCES inspection_rooms(room_id) ON DELETE CASCADE,
		kind        VARCHAR(20) NOT NULL DEFAULT 'checklist_item',
		description TEXT NOT NULL,
		status      VARCHAR(10) NOT NULL DEFAULT 'PENDING',
		notes       TEXT,
		severity    VARCHAR(10),
		position    INTEGER NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checklist_items_room ON checklist_items(room_id, position)`,
	`CREATE TABLE IF NOT EXISTS inspection_issues (
		issue_id      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		inspection_id UUID NOT NULL REFERENCES inspections(inspection_id) ON DELETE CASCADE,
		room_id       UUID REFERENCES inspection_rooms(room_id) ON DELETE SET NULL,
		title         VARCHAR(200) NOT NULL,
		description   TEXT,
		severity      VARCHAR(10) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inspection_photos (
		photo_id      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		inspection_id UUID NOT NULL REFERENCES inspections(inspection_id) ON DELETE CASCADE,
		room_id       UUID REFERENCES inspection_rooms(room_id) ON DELETE SET NULL,
		issue_id      UUID REFERENCES inspection_issues(issue_id) ON DELETE SET NULL,
		url           TEXT NOT NULL,
		thumbnail_url TEXT,
		caption       TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema 创建缺失的表和索引
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// NewPostgresRepositories 创建全部 Postgres Repository
func NewPostgresRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Inspections: NewPostgresInspectionsRepository(db),
		Rooms:       NewPostgresRoomsRepository(db),
		Checklist:   NewPostgresChecklistRepository(db),
		Issues:      NewPostgresIssuesRepository(db),
		Photos:      NewPostgresPhotosRepository(db),
	}
}

// nullable 把空字符串转换为 NULL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
