package resolver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
)

// DefaultPivot is the currency unsupported pairs are composed through.
const DefaultPivot currency.Code = "USD"

var errNoLiveLeg = errors.New("neither leg resolved live")

// LegLookup resolves a single pivot leg from local data.
type LegLookup func(base, target currency.Code) (rate.ExchangeRate, bool)

// PivotResolver synthesizes X/Y as X/P * P/Y using direct lookups on the
// same adapter chain the service uses. It composes exactly one hop; a leg
// the chain cannot price may come from the local lookup instead.
type PivotResolver struct {
	pivot  currency.Code
	direct provider.Adapter
	local  LegLookup
}

// NewPivotResolver creates a PivotResolver. An empty pivot means DefaultPivot.
func NewPivotResolver(direct provider.Adapter, pivot currency.Code) *PivotResolver {
	if pivot == "" {
		pivot = DefaultPivot
	}
	return &PivotResolver{pivot: pivot, direct: direct}
}

// WithLocalLegs sets the lookup used for legs the chain cannot resolve.
func (p *PivotResolver) WithLocalLegs(local LegLookup) *PivotResolver {
	p.local = local
	return p
}

// Pivot returns the pivot currency.
func (p *PivotResolver) Pivot() currency.Code { return p.pivot }

// Name identifies composed rates in failures.
func (p *PivotResolver) Name() string { return "pivot:" + p.pivot.String() }

// Compose resolves base/target through the pivot. When either side is the
// pivot itself there is nothing to compose and a single direct lookup is
// returned as is. At least one leg must come from the chain; a fully local
// composition is left to ComposeLocal so direct reference rows win over it.
func (p *PivotResolver) Compose(ctx context.Context, base, target currency.Code) provider.Result {
	if base == p.pivot || target == p.pivot {
		return p.direct.Resolve(ctx, base, target)
	}

	var first, second provider.Result
	var g errgroup.Group
	g.Go(func() error {
		first = p.direct.Resolve(ctx, base, p.pivot)
		return nil
	})
	g.Go(func() error {
		second = p.direct.Resolve(ctx, p.pivot, target)
		return nil
	})
	_ = g.Wait()

	if !first.OK() && !second.OK() {
		return provider.Fail(first.Err.Kind, p.Name(), fmt.Errorf("%w: %w", errNoLiveLeg, errors.Join(first.Err, second.Err)))
	}
	legs := [2]provider.Result{first, second}
	pairs := [2][2]currency.Code{{base, p.pivot}, {p.pivot, target}}
	for i, leg := range legs {
		if leg.OK() {
			continue
		}
		r, ok := p.lookupLocal(pairs[i][0], pairs[i][1])
		if !ok {
			return provider.Fail(leg.Err.Kind, p.Name(), fmt.Errorf("leg failed: %w", leg.Err))
		}
		legs[i] = provider.Success(r)
	}
	return p.compose(base, target, legs[0].Rate, legs[1].Rate)
}

// ComposeLocal composes base/target from local legs only.
func (p *PivotResolver) ComposeLocal(base, target currency.Code) provider.Result {
	if base == p.pivot || target == p.pivot {
		return provider.Fail(provider.RateNotFound, p.Name(), errors.New("pair contains the pivot"))
	}
	first, ok := p.lookupLocal(base, p.pivot)
	if !ok {
		return provider.Fail(provider.RateNotFound, p.Name(), fmt.Errorf("no local rate for %s/%s", base, p.pivot))
	}
	second, ok := p.lookupLocal(p.pivot, target)
	if !ok {
		return provider.Fail(provider.RateNotFound, p.Name(), fmt.Errorf("no local rate for %s/%s", p.pivot, target))
	}
	return p.compose(base, target, first, second)
}

func (p *PivotResolver) lookupLocal(base, target currency.Code) (rate.ExchangeRate, bool) {
	if p.local == nil {
		return rate.ExchangeRate{}, false
	}
	return p.local(base, target)
}

func (p *PivotResolver) compose(base, target currency.Code, first, second rate.ExchangeRate) provider.Result {
	ts := first.Timestamp()
	if second.Timestamp().Before(ts) {
		ts = second.Timestamp()
	}
	id := fmt.Sprintf("%s(%s,%s)", p.Name(), first.Provider(), second.Provider())
	opts := []rate.Option{rate.WithProvider(id)}
	if first.Source() != rate.LiveProvider || second.Source() != rate.LiveProvider {
		opts = append(opts, rate.WithNote(rate.NoteReferenceLeg))
	}

	composed, err := rate.New(base, target, first.Rate().Mul(second.Rate()), ts, rate.PivotComposed, opts...)
	if err != nil {
		return provider.Fail(provider.InvalidResponse, p.Name(), err)
	}
	return provider.Success(composed)
}
