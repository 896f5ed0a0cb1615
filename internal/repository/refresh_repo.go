package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status represents the state of a refresh request.
type Status string

// Status values for the refresh request lifecycle.
const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Refresh is an on-demand refresh request record.
type Refresh struct {
	ID          string
	Base        string
	Target      string
	Status      Status
	Rate        *string
	Source      *string
	ErrorMsg    *string
	RequestedAt time.Time
	UpdatedAt   *time.Time
}

// RefreshRepository defines DB operations for refresh requests.
type RefreshRepository interface {
	CreateRefresh(ctx context.Context, base, target, id string) (string, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id, rate, source string) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
	GetByID(ctx context.Context, id string) (*Refresh, error)
}

// PostgresRefreshRepository is an implementation of RefreshRepository using PostgreSQL.
type PostgresRefreshRepository struct {
	db *sql.DB
}

// NewPostgresRefreshRepository creates a new PostgresRefreshRepository.
func NewPostgresRefreshRepository(db *sql.DB) *PostgresRefreshRepository {
	return &PostgresRefreshRepository{db: db}
}

// CreateRefresh inserts a new refresh request. If one for the same pair is
// already pending or running, its ID is returned instead.
func (r *PostgresRefreshRepository) CreateRefresh(ctx context.Context, base, target, id string) (string, error) {
	query := `INSERT INTO refresh_requests (id, base, target, status, requested_at)
              VALUES ($1::uuid, $2, $3, 'PENDING'::refresh_status, NOW())
              ON CONFLICT (base, target) WHERE status IN ('PENDING', 'RUNNING')
              DO UPDATE SET base = refresh_requests.base
              RETURNING id::text`

	var returnedID string
	err := r.db.QueryRowContext(ctx, query, id, base, target).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh: %w", err)
	}
	return returnedID, nil
}

// MarkRunning moves a request to RUNNING. FAILED is accepted too because
// the task queue retries failed tasks.
func (r *PostgresRefreshRepository) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE refresh_requests
				SET status=$1::refresh_status, updated_at=NOW()
				WHERE id=$2::uuid AND status IN ($3::refresh_status, $4::refresh_status)`
	result, err := r.db.ExecContext(ctx, query, StatusRunning, id, StatusPending, StatusFailed)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

// MarkSuccess records the resolved rate and its source.
func (r *PostgresRefreshRepository) MarkSuccess(ctx context.Context, id, rate, source string) error {
	query := `UPDATE refresh_requests
				SET status=$1::refresh_status,
				    rate=$2::numeric,
				    source=$3,
				    error=NULL,
				    updated_at=NOW()
				WHERE id=$4::uuid AND status=$5::refresh_status`

	result, err := r.db.ExecContext(ctx, query, StatusSuccess, rate, source, id, StatusRunning)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

// MarkFailed records a failure message.
func (r *PostgresRefreshRepository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `UPDATE refresh_requests
				SET status=$1::refresh_status,
				    rate=NULL,
				    source=NULL,
				    error=$2,
				    updated_at=NOW()
				WHERE id=$3::uuid AND status IN ($4::refresh_status, $5::refresh_status)`

	result, err := r.db.ExecContext(ctx, query, StatusFailed, errorMsg, id, StatusPending, StatusRunning)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

func checkRowsAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("refresh %s not found or in unexpected status", id)
	}
	return nil
}

// GetByID retrieves a refresh request, or nil when it does not exist.
func (r *PostgresRefreshRepository) GetByID(ctx context.Context, id string) (*Refresh, error) {
	query := `SELECT id::text, base, target, status, rate::text, source, error, requested_at, updated_at
              FROM refresh_requests
              WHERE id=$1::uuid`

	var (
		q                 Refresh
		statusStr         string
		rateStr, src, msg sql.NullString
		updatedAt         sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&q.ID, &q.Base, &q.Target, &statusStr, &rateStr, &src, &msg, &q.RequestedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	q.Status = Status(statusStr)
	if rateStr.Valid {
		q.Rate = &rateStr.String
	}
	if src.Valid {
		q.Source = &src.String
	}
	if msg.Valid {
		q.ErrorMsg = &msg.String
	}
	if updatedAt.Valid {
		q.UpdatedAt = &updatedAt.Time
	}
	return &q, nil
}
