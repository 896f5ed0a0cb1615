// Package provider implements upstream rate adapters and the decorators
// that sit in front of them.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// FailureKind classifies why an adapter could not produce a rate.
type FailureKind int

// Failure kinds reported by adapters.
const (
	Unreachable FailureKind = iota + 1
	RateNotFound
	Timeout
	InvalidResponse
)

func (k FailureKind) String() string {
	switch k {
	case Unreachable:
		return "Unreachable"
	case RateNotFound:
		return "RateNotFound"
	case Timeout:
		return "Timeout"
	case InvalidResponse:
		return "InvalidResponse"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is the typed error half of a Result.
type Failure struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Provider, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is either a rate or a Failure, never both.
type Result struct {
	Rate rate.ExchangeRate
	Err  *Failure
}

// OK reports whether the result carries a rate.
func (r Result) OK() bool { return r.Err == nil }

// Success wraps a resolved rate.
func Success(r rate.ExchangeRate) Result { return Result{Rate: r} }

// Fail builds a failed Result.
func Fail(kind FailureKind, provider string, err error) Result {
	return Result{Err: &Failure{Kind: kind, Provider: provider, Err: err}}
}

// Adapter wraps exactly one upstream rate source. Implementations must not
// panic and must not retry; every outcome is reported through Result.
type Adapter interface {
	Name() string
	Resolve(ctx context.Context, base, target currency.Code) Result
}

// HistoryProvider returns observed daily rates for a pair, oldest first.
type HistoryProvider interface {
	Name() string
	History(ctx context.Context, base, target currency.Code, start, end time.Time) ([]rate.Point, error)
}

// ErrNoAdapters is reported when a chain has nothing to ask.
var ErrNoAdapters = errors.New("no rate adapters configured")

// classifyTransport maps an http.Client error to Timeout or Unreachable.
func classifyTransport(name string, err error) Result {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Fail(Timeout, name, err)
	}
	return Fail(Unreachable, name, err)
}

// parseRate turns a raw JSON number into a live ExchangeRate, rejecting
// anything that is not a finite positive decimal.
func parseRate(name string, base, target currency.Code, raw string, ts time.Time) Result {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Fail(InvalidResponse, name, fmt.Errorf("malformed rate %q: %w", raw, err))
	}
	r, err := rate.New(base, target, d, ts, rate.LiveProvider, rate.WithProvider(name))
	if err != nil {
		return Fail(InvalidResponse, name, err)
	}
	return Success(r)
}
