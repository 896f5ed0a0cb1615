// Package resolver turns a currency pair into exactly one ExchangeRate by
// walking the live, pivot, reference and mock tiers in order.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fxresolver/internal/currency"
	"fxresolver/internal/metrics"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
	"fxresolver/internal/reference"
)

// DefaultRequestTimeout bounds the live tiers of one resolution.
const DefaultRequestTimeout = 3 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithPivot overrides the pivot currency.
func WithPivot(code currency.Code) Option {
	return func(s *Service) {
		if code != "" {
			s.pivotCode = code
		}
	}
}

// WithRequestTimeout overrides the deadline shared by the live tiers.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.ResolverMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now for timestamps of locally produced rates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service resolves rates. It is safe for concurrent use.
type Service struct {
	chain     *provider.Chain
	pivot     *PivotResolver
	pivotCode currency.Code
	table     *reference.Table
	log       *zap.SugaredLogger
	metrics   *metrics.ResolverMetrics
	timeout   time.Duration
	now       func() time.Time
	inflight  singleflight.Group
}

// NewService creates a Service. adapters are consulted in the given order;
// table may be nil, in which case unresolvable pairs degrade straight to Mock.
func NewService(adapters []provider.Adapter, table *reference.Table, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		pivotCode: DefaultPivot,
		table:     table,
		log:       logger,
		timeout:   DefaultRequestTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chain = provider.NewChain(adapters...).WithObserver(s.observeAdapter)
	s.pivot = NewPivotResolver(s.chain, s.pivotCode).WithLocalLegs(s.referenceRate)
	return s
}

// Pivot returns the configured pivot currency.
func (s *Service) Pivot() currency.Code { return s.pivotCode }

// AdapterCount is the number of live adapters configured.
func (s *Service) AdapterCount() int { return s.chain.Len() }

// ReferenceVersion is the version of the reference table in use.
func (s *Service) ReferenceVersion() string { return s.table.Version() }

// Resolve returns a rate for base/target. The only error is an invalid
// currency code; every other problem degrades to a lower tier, so a caller
// always gets a usable rate with its provenance attached.
func (s *Service) Resolve(ctx context.Context, base, target string) (rate.ExchangeRate, error) {
	b, err := currency.Parse(base)
	if err != nil {
		return rate.ExchangeRate{}, err
	}
	t, err := currency.Parse(target)
	if err != nil {
		return rate.ExchangeRate{}, err
	}
	return s.ResolveCodes(ctx, b, t), nil
}

// ResolveCodes is Resolve for already validated codes.
func (s *Service) ResolveCodes(ctx context.Context, base, target currency.Code) rate.ExchangeRate {
	start := time.Now()
	if base == target {
		r := rate.Identity(base, s.now())
		s.record(r, start)
		return r
	}

	if r, ok := s.resolveLive(ctx, base, target); ok {
		s.record(r, start)
		return r
	}

	r := s.resolveLocal(base, target)
	s.record(r, start)
	return r
}

type liveOutcome struct {
	rate rate.ExchangeRate
	ok   bool
}

// resolveLive runs TryDirect then TryPivot. Identical in-flight requests
// share one upstream walk, which runs under its own request deadline so a
// cancelled caller does not cancel the others.
func (s *Service) resolveLive(ctx context.Context, base, target currency.Code) (rate.ExchangeRate, bool) {
	if s.chain.Len() == 0 {
		return rate.ExchangeRate{}, false
	}
	if ctx.Err() != nil {
		s.log.Warnw("Request already done, skipping live tiers", "base", base, "target", target, "error", ctx.Err())
		return rate.ExchangeRate{}, false
	}

	key := base.String() + ":" + target.String()
	ch := s.inflight.DoChan(key, func() (any, error) {
		liveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.walkLive(liveCtx, base, target), nil
	})

	select {
	case res := <-ch:
		out := res.Val.(liveOutcome)
		return out.rate, out.ok
	case <-ctx.Done():
		s.log.Warnw("Request cancelled during live resolution", "base", base, "target", target, "error", ctx.Err())
		return rate.ExchangeRate{}, false
	}
}

func (s *Service) walkLive(ctx context.Context, base, target currency.Code) liveOutcome {
	res := s.chain.Resolve(ctx, base, target)
	if res.OK() {
		return liveOutcome{rate: res.Rate, ok: true}
	}
	s.log.Warnw("Direct lookup failed", "base", base, "target", target, "kind", res.Err.Kind.String(), "error", res.Err)

	if base == s.pivotCode || target == s.pivotCode {
		return liveOutcome{}
	}
	if ctx.Err() != nil {
		return liveOutcome{}
	}

	res = s.pivot.Compose(ctx, base, target)
	if res.OK() {
		return liveOutcome{rate: res.Rate, ok: true}
	}
	s.log.Warnw("Pivot composition failed", "base", base, "target", target, "pivot", s.pivotCode, "kind", res.Err.Kind.String(), "error", res.Err)
	return liveOutcome{}
}

// resolveLocal runs TryReference, then a pivot composition over reference
// legs, then Degrade. It never blocks.
func (s *Service) resolveLocal(base, target currency.Code) rate.ExchangeRate {
	if r, ok := s.referenceRate(base, target); ok {
		return r
	}
	if res := s.pivot.ComposeLocal(base, target); res.OK() {
		return res.Rate
	}
	return rate.Unsupported(base, target, s.now())
}

func (s *Service) referenceRate(base, target currency.Code) (rate.ExchangeRate, bool) {
	v, ok := s.table.Lookup(base, target)
	if !ok {
		return rate.ExchangeRate{}, false
	}
	r, err := rate.New(base, target, v, s.now(), rate.Reference, rate.WithProvider("reference:"+s.table.Version()))
	if err != nil {
		s.log.Errorw("Reference table produced an invalid rate", "base", base, "target", target, "error", err)
		return rate.ExchangeRate{}, false
	}
	return r, true
}

func (s *Service) observeAdapter(name string, res provider.Result, elapsed time.Duration) {
	kind := ""
	if !res.OK() {
		kind = res.Err.Kind.String()
		s.log.Warnw("Adapter failed", "provider", name, "kind", kind, "elapsed", elapsed, "error", res.Err.Err)
	}
	s.metrics.RecordAdapterAttempt(name, kind, elapsed)
}

func (s *Service) record(r rate.ExchangeRate, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.RecordResolution(r.Source().String(), elapsed)
	if r.Source() == rate.Mock {
		s.log.Warnw("No rate data for pair, returning mock parity", "base", r.Base(), "target", r.Target(), "note", r.Note())
		return
	}
	s.log.Infow("Rate resolved", "base", r.Base(), "target", r.Target(), "rate", r.Rate().String(),
		"source", r.Source().String(), "provider", r.Provider(), "elapsed", elapsed)
}
