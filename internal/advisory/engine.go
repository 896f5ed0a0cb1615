// Package advisory converts amounts through resolved rates and ranks the
// results for travel budgeting.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
)

// ErrRequestTimeout is returned when the caller's deadline or cancellation
// arrives before the conversions are joined.
var ErrRequestTimeout = errors.New("request timed out")

// RateResolver is the part of the resolution service the engine needs.
type RateResolver interface {
	ResolveCodes(ctx context.Context, base, target currency.Code) rate.ExchangeRate
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistory registers historical providers, consulted in order.
func WithHistory(providers ...provider.HistoryProvider) Option {
	return func(e *Engine) { e.history = append(e.history, providers...) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine performs conversions and advisory ranking.
type Engine struct {
	resolver RateResolver
	history  []provider.HistoryProvider
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewEngine creates an Engine on top of resolver.
func NewEngine(resolver RateResolver, logger *zap.SugaredLogger, opts ...Option) *Engine {
	e := &Engine{resolver: resolver, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convert resolves base/target and multiplies amount by the rate.
func (e *Engine) Convert(ctx context.Context, amount decimal.Decimal, base, target string) (rate.Conversion, error) {
	if amount.IsNegative() {
		return rate.Conversion{}, rate.ErrNegativeAmount
	}
	b, err := currency.Parse(base)
	if err != nil {
		return rate.Conversion{}, err
	}
	t, err := currency.Parse(target)
	if err != nil {
		return rate.Conversion{}, err
	}

	r := e.resolver.ResolveCodes(ctx, b, t)
	if err := ctx.Err(); err != nil {
		return rate.Conversion{}, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return rate.NewConversion(amount, r, e.now())
}

// ConvertBatch converts amount from base into every distinct target
// concurrently and ranks the results.
func (e *Engine) ConvertBatch(ctx context.Context, amount decimal.Decimal, base string, targets []string) (Ranking, error) {
	if amount.IsNegative() {
		return Ranking{}, rate.ErrNegativeAmount
	}
	b, err := currency.Parse(base)
	if err != nil {
		return Ranking{}, err
	}
	codes, err := distinctCodes(targets)
	if err != nil {
		return Ranking{}, err
	}

	conversions := make([]rate.Conversion, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		g.Go(func() error {
			r := e.resolver.ResolveCodes(gctx, b, code)
			c, err := rate.NewConversion(amount, r, e.now())
			if err != nil {
				return err
			}
			conversions[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Ranking{}, err
	}
	if err := ctx.Err(); err != nil {
		e.log.Warnw("Batch conversion abandoned", "base", b, "targets", len(codes), "error", err)
		return Ranking{}, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}

	return Rank(amount, b, conversions), nil
}

// Currencies lists the supported currencies.
func (e *Engine) Currencies() []currency.Info {
	return currency.List()
}

func distinctCodes(targets []string) ([]currency.Code, error) {
	seen := make(map[currency.Code]struct{}, len(targets))
	codes := make([]currency.Code, 0, len(targets))
	for _, s := range targets {
		c, err := currency.Parse(s)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	return codes, nil
}
