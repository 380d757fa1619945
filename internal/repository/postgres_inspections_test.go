package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var inspectionRowColumns = []string{
	"inspection_id", "property_id", "unit_id", "inspection_type", "status", "scheduled_at",
	"findings", "notes", "signature_url", "completed_at", "created_at", "updated_at",
}

// ============================================
// 检查记录
// ============================================

func TestGetInspection_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	id := uuid.NewString()
	now := time.Now()
	rows := sqlmock.NewRows(inspectionRowColumns).AddRow(
		id, "prop-1", nil, "MOVE_IN", "IN_PROGRESS", now,
		nil, "bring keys", nil, nil, now, now,
	)
	mock.ExpectQuery(`SELECT`).WithArgs(id).WillReturnRows(rows)

	insp, err := repo.GetInspection(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, insp.InspectionID)
	assert.Equal(t, domain.InspectionMoveIn, insp.Type)
	assert.Equal(t, domain.StatusInProgress, insp.Status)
	assert.Equal(t, "bring keys", insp.Notes)
	assert.Empty(t, insp.UnitID)
	assert.Nil(t, insp.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInspection_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	mock.ExpectQuery(`SELECT`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetInspection(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListInspections_FiltersAndPaging(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM inspections WHERE 1=1 AND property_id = \$1 AND status = \$2`).
		WithArgs("prop-1", "SCHEDULED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("prop-1", "SCHEDULED", 2, 2).
		WillReturnRows(sqlmock.NewRows(inspectionRowColumns).AddRow(
			"i-3", "prop-1", "unit-9", "ROUTINE", "SCHEDULED", now,
			nil, nil, nil, nil, now, now,
		))

	list, total, err := repo.ListInspections(context.Background(),
		&InspectionFilters{PropertyID: "prop-1", Status: domain.StatusScheduled}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "unit-9", list[0].UnitID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspection_DefaultsStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	scheduled := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO inspections`).
		WithArgs("prop-1", nil, "ROUTINE", "SCHEDULED", scheduled, nil).
		WillReturnRows(sqlmock.NewRows([]string{"inspection_id"}).AddRow("new-id"))

	id, err := repo.CreateInspection(context.Background(), &domain.Inspection{
		PropertyID:  "prop-1",
		Type:        domain.InspectionRoutine,
		ScheduledAt: scheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspection_RejectsUnknownType(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	_, err := repo.CreateInspection(context.Background(), &domain.Inspection{PropertyID: "p", Type: "WEEKLY"})
	assert.Error(t, err)
}

func TestSetInspectionStatus_Conflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	mock.ExpectExec(`UPDATE inspections`).
		WithArgs("i-1", "SCHEDULED", "IN_PROGRESS").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("i-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.SetInspectionStatus(context.Background(), "i-1", domain.StatusScheduled, domain.StatusInProgress)
	assert.ErrorIs(t, err, ErrStatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetInspectionStatus_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	mock.ExpectExec(`UPDATE inspections`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("i-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.SetInspectionStatus(context.Background(), "i-1", domain.StatusScheduled, domain.StatusInProgress)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteInspection_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	done := time.Now()
	mock.ExpectExec(`UPDATE inspections`).
		WithArgs("i-1", "All good", nil, done).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CompleteInspection(context.Background(), "i-1", "All good", "", done))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetSignature_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresInspectionsRepository(db)

	mock.ExpectExec(`UPDATE inspections`).
		WithArgs("i-1", "https://cdn/sig.png").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetSignature(context.Background(), "i-1", "https://cdn/sig.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
