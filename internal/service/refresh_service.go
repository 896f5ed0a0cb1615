// Package service implements on-demand and scheduled rate refreshes.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fxresolver/internal/currency"
	"fxresolver/internal/metrics"
	"fxresolver/internal/rate"
	"fxresolver/internal/repository"
)

// TaskTypeRefreshRate is the Asynq task type for rate refresh jobs.
const TaskTypeRefreshRate = "rates:refresh"

// RefreshPayload is the payload of a refresh task. RefreshID is empty for
// scheduled refreshes, which are not tracked.
type RefreshPayload struct {
	RefreshID string `json:"refresh_id,omitempty"`
	Base      string `json:"base"`
	Target    string `json:"target"`
}

// RateResolver resolves validated pairs.
type RateResolver interface {
	ResolveCodes(ctx context.Context, base, target currency.Code) rate.ExchangeRate
}

// TaskEnqueuer puts refresh tasks on the queue.
type TaskEnqueuer interface {
	EnqueueRefreshTask(ctx context.Context, payload RefreshPayload) error
}

// RefreshServiceInterface defines the operations available for rate refreshes.
type RefreshServiceInterface interface {
	RequestRefresh(ctx context.Context, pair string) (refreshID, status string, err error)
	GetRefresh(ctx context.Context, refreshID string) (*RefreshResult, error)
	ProcessRefresh(ctx context.Context, refreshID, base, target string) error
}

// RefreshService re-resolves pairs in the background and records live
// results as snapshots.
type RefreshService struct {
	repo      repository.RefreshRepository
	snapshots repository.SnapshotRepository
	resolver  RateResolver
	enqueuer  TaskEnqueuer
	metrics   *metrics.ResolverMetrics
	log       *zap.SugaredLogger
}

// NewRefreshService creates a new RefreshService. repo and snapshots may be
// nil when no database is configured.
func NewRefreshService(repo repository.RefreshRepository, snapshots repository.SnapshotRepository, resolver RateResolver, enqueuer TaskEnqueuer, m *metrics.ResolverMetrics, logger *zap.SugaredLogger) *RefreshService {
	return &RefreshService{
		repo:      repo,
		snapshots: snapshots,
		resolver:  resolver,
		enqueuer:  enqueuer,
		metrics:   m,
		log:       logger,
	}
}

// RequestRefresh schedules a refresh of pair ("BASE/TARGET"). A refresh
// already pending for the pair is reused.
func (s *RefreshService) RequestRefresh(ctx context.Context, pair string) (refreshID, status string, err error) {
	base, target, err := currency.ParsePair(pair)
	if err != nil {
		return "", "", err
	}
	if s.repo == nil {
		if err := s.enqueue(ctx, RefreshPayload{Base: base.String(), Target: target.String()}); err != nil {
			return "", "", err
		}
		return "", string(repository.StatusPending), nil
	}

	uid := uuid.New().String()
	id, err := s.repo.CreateRefresh(ctx, base.String(), target.String(), uid)
	if err != nil {
		s.log.Errorw("CreateRefresh DB error", "error", err)
		return "", "", ErrInternal
	}

	if id != uid {
		return id, string(repository.StatusPending), nil
	}

	if err := s.enqueue(ctx, RefreshPayload{RefreshID: id, Base: base.String(), Target: target.String()}); err != nil {
		s.markFailed(ctx, id, "enqueue error")
		return "", "", err
	}

	s.log.Infow("Enqueued refresh task", "refresh_id", id, "pair", pair)
	return id, string(repository.StatusPending), nil
}

// GetRefresh retrieves a refresh request by ID.
func (s *RefreshService) GetRefresh(ctx context.Context, refreshID string) (*RefreshResult, error) {
	if _, err := uuid.Parse(refreshID); err != nil {
		return nil, ErrInvalidRefreshID
	}
	if s.repo == nil {
		return nil, ErrTrackingDisabled
	}
	q, err := s.repo.GetByID(ctx, refreshID)
	if err != nil {
		s.log.Errorw("DB error fetching refresh by ID", "refresh_id", refreshID, "error", err)
		return nil, ErrInternal
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return refreshResultFromRepo(q), nil
}

// ProcessRefresh resolves the pair and records the outcome (called by the
// background worker). A degraded result is reported as a failure so the
// queue retries it.
func (s *RefreshService) ProcessRefresh(ctx context.Context, refreshID, base, target string) error {
	b, err := currency.Parse(base)
	if err != nil {
		s.completeFailure(ctx, refreshID, err)
		return err
	}
	t, err := currency.Parse(target)
	if err != nil {
		s.completeFailure(ctx, refreshID, err)
		return err
	}

	s.log.Infow("Processing refresh", "refresh_id", refreshID, "base", b, "target", t)
	s.markRunning(ctx, refreshID)

	r := s.resolver.ResolveCodes(ctx, b, t)
	s.metrics.RecordRefresh(r.Source().String())
	if src := r.Source(); src == rate.Reference || src == rate.Mock || r.Note() == rate.NoteReferenceLeg {
		err := fmt.Errorf("%w: %s/%s resolved from %s", ErrLiveUnavailable, b, t, r.Source())
		s.completeFailure(ctx, refreshID, err)
		return err
	}

	if s.snapshots != nil {
		if _, err := s.snapshots.Save(ctx, r); err != nil {
			s.log.Warnw("Failed to save snapshot", "base", b, "target", t, "error", err)
		}
	}

	if refreshID != "" && s.repo != nil {
		if err := s.repo.MarkSuccess(ctx, refreshID, r.Rate().String(), r.Source().String()); err != nil {
			s.log.Errorw("DB update error on success", "refresh_id", refreshID, "error", err)
			return err
		}
	}

	s.log.Infow("Refresh success", "refresh_id", refreshID, "rate", r.Rate().String(), "source", r.Source().String(), "provider", r.Provider())
	return nil
}

func (s *RefreshService) enqueue(ctx context.Context, payload RefreshPayload) error {
	if s.enqueuer == nil {
		return ErrInternalQueue
	}
	if err := s.enqueuer.EnqueueRefreshTask(ctx, payload); err != nil {
		s.log.Errorw("Failed to enqueue task", "refresh_id", payload.RefreshID, "error", err)
		return ErrInternalQueue
	}
	return nil
}

func (s *RefreshService) markFailed(ctx context.Context, refreshID, reason string) {
	if refreshID == "" || s.repo == nil {
		return
	}
	if err := s.repo.MarkFailed(ctx, refreshID, reason); err != nil {
		s.log.Warnw("Failed to mark record as FAILED", "refresh_id", refreshID, "error", err)
	}
}

func (s *RefreshService) markRunning(ctx context.Context, refreshID string) {
	if refreshID == "" || s.repo == nil {
		return
	}
	if err := s.repo.MarkRunning(ctx, refreshID); err != nil {
		s.log.Warnw("Failed to mark record as RUNNING", "refresh_id", refreshID, "error", err)
	}
}

func (s *RefreshService) completeFailure(ctx context.Context, refreshID string, cause error) {
	s.log.Errorw("Refresh failed", "refresh_id", refreshID, "error", cause)
	s.markFailed(ctx, refreshID, cause.Error())
}
