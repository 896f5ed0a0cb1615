package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxresolver/internal/currency"
)

var _ Adapter = (*Chain)(nil)

// ObserverFunc is told about every adapter attempt made by a Chain.
type ObserverFunc func(adapter string, res Result, elapsed time.Duration)

// Chain asks its adapters sequentially, in priority order, until one
// succeeds.
type Chain struct {
	adapters []Adapter
	observe  ObserverFunc
}

// NewChain creates a new Chain with the given list of adapters.
func NewChain(adapters ...Adapter) *Chain {
	return &Chain{adapters: adapters}
}

// WithObserver returns a copy of the chain reporting attempts to fn.
func (c *Chain) WithObserver(fn ObserverFunc) *Chain {
	return &Chain{adapters: c.adapters, observe: fn}
}

// Name implements Adapter.
func (c *Chain) Name() string { return "chain" }

// Len is the number of adapters in the chain.
func (c *Chain) Len() int { return len(c.adapters) }

// Resolve calls adapters sequentially until one succeeds. It stops early
// when ctx is done.
func (c *Chain) Resolve(ctx context.Context, base, target currency.Code) Result {
	if len(c.adapters) == 0 {
		return Fail(RateNotFound, c.Name(), ErrNoAdapters)
	}

	var failures []*Failure
	for _, a := range c.adapters {
		if err := ctx.Err(); err != nil {
			failures = append(failures, &Failure{Kind: Timeout, Provider: c.Name(), Err: err})
			break
		}
		start := time.Now()
		res := a.Resolve(ctx, base, target)
		if c.observe != nil {
			c.observe(a.Name(), res, time.Since(start))
		}
		if res.OK() {
			return res
		}
		failures = append(failures, res.Err)
	}

	return Result{Err: &Failure{
		Kind:     dominantKind(failures),
		Provider: c.Name(),
		Err:      fmt.Errorf("all adapters failed for %s/%s: %w", base, target, joinFailures(failures)),
	}}
}

// dominantKind is the shared kind of all failures, or Unreachable when
// they disagree.
func dominantKind(failures []*Failure) FailureKind {
	if len(failures) == 0 {
		return Unreachable
	}
	kind := failures[0].Kind
	for _, f := range failures[1:] {
		if f.Kind != kind {
			return Unreachable
		}
	}
	return kind
}

func joinFailures(failures []*Failure) error {
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
