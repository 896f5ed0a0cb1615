//go:build integration

package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
	"fxresolver/internal/repository"
	"fxresolver/internal/testkit"
)

func newRefreshRepo() repository.RefreshRepository {
	return repository.NewPostgresRefreshRepository(testkit.Global().DB())
}

func newSnapshotRepo() repository.SnapshotRepository {
	return repository.NewPostgresSnapshotRepository(testkit.Global().DB())
}

func TestCreateRefresh(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRefreshRepo()

	id := uuid.New().String()
	got, err := repo.CreateRefresh(ctx, "CNY", "JPY", id)
	if err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}
	if got != id {
		t.Fatalf("expected id %s, got %s", id, got)
	}

	q, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q == nil {
		t.Fatal("expected refresh record, got nil")
	}
	if q.Base != "CNY" || q.Target != "JPY" {
		t.Fatalf("expected CNY/JPY, got %s/%s", q.Base, q.Target)
	}
	if q.Status != repository.StatusPending {
		t.Fatalf("expected PENDING, got %s", q.Status)
	}
	if q.UpdatedAt != nil {
		t.Fatal("expected no updated_at on a new request")
	}
}

func TestCreateRefresh_Dedup(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRefreshRepo()

	id1 := uuid.New().String()
	if _, err := repo.CreateRefresh(ctx, "CNY", "JPY", id1); err != nil {
		t.Fatalf("first CreateRefresh: %v", err)
	}

	// Still in flight while RUNNING.
	if err := repo.MarkRunning(ctx, id1); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	got, err := repo.CreateRefresh(ctx, "CNY", "JPY", uuid.New().String())
	if err != nil {
		t.Fatalf("second CreateRefresh: %v", err)
	}
	if got != id1 {
		t.Fatalf("expected dedup to return %s, got %s", id1, got)
	}

	// Another pair is independent.
	other := uuid.New().String()
	got, err = repo.CreateRefresh(ctx, "CNY", "USD", other)
	if err != nil {
		t.Fatalf("CreateRefresh other pair: %v", err)
	}
	if got != other {
		t.Fatalf("expected new id %s for another pair, got %s", other, got)
	}
}

func TestCreateRefresh_AfterCompletion(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRefreshRepo()

	id1 := uuid.New().String()
	if _, err := repo.CreateRefresh(ctx, "CNY", "JPY", id1); err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}
	if err := repo.MarkRunning(ctx, id1); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkSuccess(ctx, id1, "20.5", rate.LiveProvider.String()); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}

	id2 := uuid.New().String()
	got, err := repo.CreateRefresh(ctx, "CNY", "JPY", id2)
	if err != nil {
		t.Fatalf("CreateRefresh after completion: %v", err)
	}
	if got != id2 {
		t.Fatalf("expected a new refresh %s once the previous one completed, got %s", id2, got)
	}
}

func TestMarkSuccess(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRefreshRepo()

	id := uuid.New().String()
	if _, err := repo.CreateRefresh(ctx, "CNY", "JPY", id); err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}

	// A PENDING request must go through RUNNING first.
	if err := repo.MarkSuccess(ctx, id, "20.5", "LiveProvider"); err == nil {
		t.Fatal("expected MarkSuccess on PENDING to fail")
	}

	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkSuccess(ctx, id, "20.5123456789", "PivotComposed"); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}

	q, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q.Status != repository.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", q.Status)
	}
	if q.Rate == nil || *q.Rate != "20.5123456789" {
		t.Fatalf("expected rate 20.5123456789, got %v", q.Rate)
	}
	if q.Source == nil || *q.Source != "PivotComposed" {
		t.Fatalf("expected source PivotComposed, got %v", q.Source)
	}
	if q.UpdatedAt == nil {
		t.Fatal("expected updated_at to be set")
	}
}

func TestMarkFailed_ThenRetry(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRefreshRepo()

	id := uuid.New().String()
	if _, err := repo.CreateRefresh(ctx, "CNY", "JPY", id); err != nil {
		t.Fatalf("CreateRefresh: %v", err)
	}
	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkFailed(ctx, id, "no live or pivot-composed rate available"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	q, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q.Status != repository.StatusFailed || q.ErrorMsg == nil {
		t.Fatalf("expected FAILED with message, got %s %v", q.Status, q.ErrorMsg)
	}

	// The queue retries failed tasks, so FAILED may move back to RUNNING.
	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning after failure: %v", err)
	}
	if err := repo.MarkSuccess(ctx, id, "20.5", "LiveProvider"); err != nil {
		t.Fatalf("MarkSuccess after retry: %v", err)
	}
	q, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q.ErrorMsg != nil {
		t.Fatalf("expected error to be cleared, got %s", *q.ErrorMsg)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)

	q, err := newRefreshRepo().GetByID(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q != nil {
		t.Fatalf("expected nil for unknown id, got %+v", q)
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newSnapshotRepo()

	older := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)
	if _, err := repo.Save(ctx, mustRate(t, "CNY", "JPY", "20.4", older, rate.LiveProvider)); err != nil {
		t.Fatalf("Save older: %v", err)
	}
	id, err := repo.Save(ctx, mustRate(t, "CNY", "JPY", "20.5123", newer, rate.PivotComposed))
	if err != nil {
		t.Fatalf("Save newer: %v", err)
	}

	s, err := repo.Latest(ctx, currency.Code("CNY"), currency.Code("JPY"))
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if s == nil || s.ID != id {
		t.Fatalf("expected latest snapshot %s, got %+v", id, s)
	}
	if s.Rate.String() != "20.5123" || s.Source != rate.PivotComposed || s.Provider != "fake" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if !s.ObservedAt.Equal(newer) {
		t.Fatalf("expected observed_at %s, got %s", newer, s.ObservedAt)
	}

	none, err := repo.Latest(ctx, currency.Code("CNY"), currency.Code("EUR"))
	if err != nil {
		t.Fatalf("Latest unknown pair: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for a pair without snapshots, got %+v", none)
	}
}

func TestSnapshotSave_RefusesDegraded(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)

	_, err := newSnapshotRepo().Save(ctx, mustRate(t, "CNY", "JPY", "20.5", time.Now(), rate.Reference))
	if !errors.Is(err, repository.ErrDegradedSnapshot) {
		t.Fatalf("expected ErrDegradedSnapshot, got %v", err)
	}
}

func TestSnapshotHistory_LastPerDay(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newSnapshotRepo()

	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }
	for _, s := range []struct {
		at  time.Time
		r   string
		src rate.Source
	}{
		{day(1, 8), "20.1", rate.PivotComposed},
		{day(1, 20), "20.2", rate.LiveProvider},
		{day(3, 12), "20.3", rate.PivotComposed},
		{day(5, 12), "20.9", rate.LiveProvider}, // outside the range
	} {
		if _, err := repo.Save(ctx, mustRate(t, "CNY", "JPY", s.r, s.at, s.src)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	points, err := repo.History(ctx, currency.Code("CNY"), currency.Code("JPY"), day(1, 0), day(4, 0))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 days with snapshots, got %d", len(points))
	}
	if !points[0].Date.Equal(day(1, 0)) || points[0].Rate.String() != "20.2" || points[0].Source != rate.LiveProvider {
		t.Fatalf("expected the last rate of day 1, got %+v", points[0])
	}
	if !points[1].Date.Equal(day(3, 0)) || points[1].Rate.String() != "20.3" || points[1].Source != rate.PivotComposed {
		t.Fatalf("unexpected day 3 point %+v", points[1])
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	ctx := testContext(t)
	db := testkit.Global().DB()

	// TestMain already migrated; a second run must apply nothing.
	if err := repository.RunMigrations(db, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	var versions int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if versions != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", versions)
	}
}
