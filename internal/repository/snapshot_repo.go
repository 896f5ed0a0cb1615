package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
)

// Snapshot is a persisted resolution result.
type Snapshot struct {
	ID         string
	Base       currency.Code
	Target     currency.Code
	Rate       decimal.Decimal
	Source     rate.Source
	Provider   string
	ObservedAt time.Time
	RecordedAt time.Time
}

// SnapshotRepository stores resolved rates and serves them back as history.
type SnapshotRepository interface {
	provider.HistoryProvider
	Save(ctx context.Context, r rate.ExchangeRate) (string, error)
	Latest(ctx context.Context, base, target currency.Code) (*Snapshot, error)
}

// ErrDegradedSnapshot is returned when asked to store a Reference or Mock rate.
var ErrDegradedSnapshot = errors.New("only live and pivot-composed rates are recorded")

// PostgresSnapshotRepository is an implementation of SnapshotRepository using PostgreSQL.
type PostgresSnapshotRepository struct {
	db *sql.DB
}

// NewPostgresSnapshotRepository creates a new PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Name implements provider.HistoryProvider.
func (r *PostgresSnapshotRepository) Name() string { return "snapshots" }

// Save records r. Local tiers carry no market information and are refused.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, er rate.ExchangeRate) (string, error) {
	if er.Source() != rate.LiveProvider && er.Source() != rate.PivotComposed {
		return "", ErrDegradedSnapshot
	}
	id := uuid.New().String()
	query := `INSERT INTO rate_snapshots (id, base, target, rate, source, provider, observed_at)
              VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, id, er.Base().String(), er.Target().String(),
		er.Rate().String(), er.Source().String(), er.Provider(), er.Timestamp())
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recently observed snapshot for the pair, or nil.
func (r *PostgresSnapshotRepository) Latest(ctx context.Context, base, target currency.Code) (*Snapshot, error) {
	query := `SELECT id::text, base, target, rate::text, source, provider, observed_at, recorded_at
              FROM rate_snapshots
              WHERE base=$1 AND target=$2
              ORDER BY observed_at DESC
              LIMIT 1`

	var (
		s              Snapshot
		b, t, raw, src string
	)
	err := r.db.QueryRowContext(ctx, query, base.String(), target.String()).
		Scan(&s.ID, &b, &t, &raw, &src, &s.Provider, &s.ObservedAt, &s.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	s.Base, s.Target = currency.Code(b), currency.Code(t)
	if s.Rate, err = decimal.NewFromString(raw); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	if s.Source, err = rate.ParseSource(src); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	s.ObservedAt, s.RecordedAt = s.ObservedAt.UTC(), s.RecordedAt.UTC()
	return &s, nil
}

// History returns the last observed rate of each UTC day between start and
// end inclusive, oldest first. Days without snapshots are absent.
func (r *PostgresSnapshotRepository) History(ctx context.Context, base, target currency.Code, start, end time.Time) ([]rate.Point, error) {
	query := `SELECT DISTINCT ON (day) (observed_at AT TIME ZONE 'UTC')::date AS day, rate::text, source
              FROM rate_snapshots
              WHERE base=$1 AND target=$2
                AND observed_at >= $3 AND observed_at < $4
              ORDER BY day, observed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, base.String(), target.String(), start.UTC(), end.UTC().AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var points []rate.Point
	for rows.Next() {
		var (
			day      time.Time
			raw, src string
		)
		if err := rows.Scan(&day, &raw, &src); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot history %s: %w", day.Format(time.DateOnly), err)
		}
		source, err := rate.ParseSource(src)
		if err != nil {
			return nil, fmt.Errorf("snapshot history %s: %w", day.Format(time.DateOnly), err)
		}
		y, m, dd := day.Date()
		points = append(points, rate.Point{Date: time.Date(y, m, dd, 0, 0, 0, 0, time.UTC), Rate: d, Source: source})
	}
	return points, rows.Err()
}
