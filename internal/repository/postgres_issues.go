package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// PostgresIssuesRepository 问题Repository实现
type PostgresIssuesRepository struct {
	db *sql.DB
}

// NewPostgresIssuesRepository 创建问题Repository
func NewPostgresIssuesRepository(db *sql.DB) *PostgresIssuesRepository {
	return &PostgresIssuesRepository{db: db}
}

var _ IssuesRepository = (*PostgresIssuesRepository)(nil)

const issueColumns = `
	issue_id::text,
	inspection_id::text,
	room_id::text,
	title,
	description,
	severity,
	created_at`

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	var roomID, description sql.NullString
	if err := row.Scan(
		&issue.IssueID,
		&issue.InspectionID,
		&roomID,
		&issue.Title,
		&description,
		&issue.Severity,
		&issue.CreatedAt,
	); err != nil {
		return nil, err
	}
	issue.RoomID = roomID.String
	issue.Description = description.String
	return &issue, nil
}

// ListIssues 查询检查下的问题
func (r *PostgresIssuesRepository) ListIssues(ctx context.Context, inspectionID string) ([]*domain.Issue, error) {
	if inspectionID == "" {
		return []*domain.Issue{}, nil
	}

	query := `SELECT ` + issueColumns + `
		FROM inspection_issues
		WHERE inspection_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []*domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issues: %w", err)
	}
	return issues, nil
}

// GetIssue 获取问题
func (r *PostgresIssuesRepository) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	if issueID == "" {
		return nil, fmt.Errorf("issue %w", ErrNotFound)
	}

	query := `SELECT ` + issueColumns + `
		FROM inspection_issues
		WHERE issue_id = $1`

	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, issueID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issue %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return issue, nil
}

// CreateIssue 创建问题
func (r *PostgresIssuesRepository) CreateIssue(ctx context.Context, issue *domain.Issue) (string, error) {
	if issue.InspectionID == "" {
		return "", fmt.Errorf("inspection_id is required")
	}
	if strings.TrimSpace(issue.Title) == "" {
		return "", fmt.Errorf("title is required")
	}
	if !issue.Severity.Valid() {
		return "", fmt.Errorf("invalid severity: %s", issue.Severity)
	}

	query := `
		INSERT INTO inspection_issues (inspection_id, room_id, title, description, severity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING issue_id::text
	`

	var issueID string
	err := r.db.QueryRowContext(ctx, query, issue.InspectionID, nullable(issue.RoomID), issue.Title,
		nullable(issue.Description), string(issue.Severity)).Scan(&issueID)
	if err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}
	return issueID, nil
}
