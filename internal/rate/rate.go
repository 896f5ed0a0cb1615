// Package rate holds the immutable value types produced by rate resolution.
package rate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
)

// InversePrecision is the number of decimal places kept for 1/rate.
const InversePrecision = 28

// NoteUnsupportedPair marks a Mock result; it is never a real 1:1 parity.
const NoteUnsupportedPair = "unsupported pair: no provider, pivot or reference data"

// NoteReferenceLeg marks a PivotComposed rate with at least one leg taken
// from the reference table.
const NoteReferenceLeg = "composed with reference data"

// ErrNonPositiveRate is returned when a computed or received rate is not > 0.
var ErrNonPositiveRate = errors.New("rate must be positive")

// ExchangeRate is an immutable resolved rate. The zero value is not valid;
// build one with New, Identity or Unsupported.
type ExchangeRate struct {
	base      currency.Code
	target    currency.Code
	rate      decimal.Decimal
	inverse   decimal.Decimal
	timestamp time.Time
	source    Source
	provider  string
	note      string
}

// Option customizes an ExchangeRate at construction time.
type Option func(*ExchangeRate)

// WithProvider records the identity of the adapter or tier that produced the rate.
func WithProvider(name string) Option {
	return func(r *ExchangeRate) { r.provider = name }
}

// WithNote attaches a provenance note.
func WithNote(note string) Option {
	return func(r *ExchangeRate) { r.note = note }
}

// New validates r and computes the inverse once.
func New(base, target currency.Code, r decimal.Decimal, ts time.Time, source Source, opts ...Option) (ExchangeRate, error) {
	if !r.IsPositive() {
		return ExchangeRate{}, fmt.Errorf("%w: %s/%s = %s", ErrNonPositiveRate, base, target, r.String())
	}
	er := ExchangeRate{
		base:      base,
		target:    target,
		rate:      r,
		inverse:   decimal.NewFromInt(1).DivRound(r, InversePrecision),
		timestamp: ts.UTC(),
		source:    source,
	}
	for _, opt := range opts {
		opt(&er)
	}
	return er, nil
}

// Identity is the rate of a currency against itself.
func Identity(code currency.Code, ts time.Time) ExchangeRate {
	one := decimal.NewFromInt(1)
	return ExchangeRate{
		base:      code,
		target:    code,
		rate:      one,
		inverse:   one,
		timestamp: ts.UTC(),
		source:    Reference,
		provider:  "identity",
	}
}

// Unsupported is the explicit Mock placeholder for a pair no tier could
// resolve.
func Unsupported(base, target currency.Code, ts time.Time) ExchangeRate {
	one := decimal.NewFromInt(1)
	return ExchangeRate{
		base:      base,
		target:    target,
		rate:      one,
		inverse:   one,
		timestamp: ts.UTC(),
		source:    Mock,
		provider:  "mock",
		note:      NoteUnsupportedPair,
	}
}

func (r ExchangeRate) Base() currency.Code      { return r.base }
func (r ExchangeRate) Target() currency.Code    { return r.target }
func (r ExchangeRate) Rate() decimal.Decimal    { return r.rate }
func (r ExchangeRate) Inverse() decimal.Decimal { return r.inverse }
func (r ExchangeRate) Timestamp() time.Time     { return r.timestamp }
func (r ExchangeRate) Source() Source           { return r.source }
func (r ExchangeRate) Provider() string         { return r.provider }
func (r ExchangeRate) Note() string             { return r.note }

// Degraded reports whether the rate came from anything below a live provider.
func (r ExchangeRate) Degraded() bool { return r.source != LiveProvider }

type exchangeRateJSON struct {
	Base        currency.Code   `json:"base"`
	Target      currency.Code   `json:"target"`
	Rate        decimal.Decimal `json:"rate"`
	InverseRate decimal.Decimal `json:"inverse_rate"`
	Timestamp   string          `json:"timestamp"`
	Source      Source          `json:"source"`
	Provider    string          `json:"provider,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r ExchangeRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(exchangeRateJSON{
		Base:        r.base,
		Target:      r.target,
		Rate:        r.rate,
		InverseRate: r.inverse,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Source:      r.source,
		Provider:    r.provider,
		Note:        r.note,
	})
}
