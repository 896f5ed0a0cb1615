// Package worker implements background task handling for rate refreshes.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fxresolver/internal/service"
)

// NewRefreshHandler returns a function to handle rate refresh tasks.
func NewRefreshHandler(svc service.RefreshServiceInterface, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.RefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
		}

		err := svc.ProcessRefresh(ctx, payload.RefreshID, payload.Base, payload.Target)
		if err != nil {
			logger.Errorw("Task processing failed", "refresh_id", payload.RefreshID, "pair", payload.Base+"/"+payload.Target, "error", err)
			return err
		}

		logger.Infow("Task completed", "refresh_id", payload.RefreshID, "pair", payload.Base+"/"+payload.Target)
		return nil
	}
}

// NewServeMux routes refresh tasks to svc.
func NewServeMux(svc service.RefreshServiceInterface, logger *zap.SugaredLogger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRefreshRate, NewRefreshHandler(svc, logger))
	return mux
}

// AsynqEnqueuer enqueues refresh tasks with the configured retry and timeout.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueRefreshTask implements service.TaskEnqueuer.
func (e *AsynqEnqueuer) EnqueueRefreshTask(ctx context.Context, payload service.RefreshPayload) error {
	task, err := NewRefreshTask(payload, e.maxRetry, e.timeout)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// NewRefreshTask builds the asynq task for payload.
func NewRefreshTask(payload service.RefreshPayload, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(service.TaskTypeRefreshRate, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	), nil
}
