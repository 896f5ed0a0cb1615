package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fxresolver/internal/currency"
	"fxresolver/internal/service"
)

// RegisterRefreshes adds one periodic, untracked refresh task per pair to
// scheduler. Pairs must be "BASE/TARGET".
func RegisterRefreshes(scheduler *asynq.Scheduler, pairs []string, every time.Duration, maxRetry int, timeout time.Duration, logger *zap.SugaredLogger) error {
	spec := fmt.Sprintf("@every %s", every)
	for _, pair := range pairs {
		base, target, err := currency.ParsePair(pair)
		if err != nil {
			return fmt.Errorf("watch pair %q: %w", pair, err)
		}
		task, err := NewRefreshTask(service.RefreshPayload{Base: base.String(), Target: target.String()}, maxRetry, timeout)
		if err != nil {
			return err
		}
		// the unique window stops overlapping runs from piling up when workers lag
		entryID, err := scheduler.Register(spec, task, asynq.Unique(every))
		if err != nil {
			return fmt.Errorf("register refresh for %s: %w", pair, err)
		}
		logger.Infow("Scheduled rate refresh", "pair", pair, "every", every.String(), "entry_id", entryID)
	}
	return nil
}
