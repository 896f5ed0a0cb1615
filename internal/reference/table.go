// Package reference provides the static, versioned fallback rate table.
package reference

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// DefaultVersion identifies the built-in data set.
const DefaultVersion = "2026.1"

// builtin rows: 1 unit of the outer currency in units of the inner one.
var builtin = map[string]map[string]string{
	"CNY": {
		"USD": "0.138", "JPY": "20.5", "EUR": "0.127", "GBP": "0.110", "KRW": "185.5",
		"HKD": "1.075", "SGD": "0.188", "AUD": "0.210", "CAD": "0.188",
	},
	"USD": {
		"CNY": "7.246", "JPY": "148.5", "EUR": "0.921", "GBP": "0.797", "KRW": "1344.2",
		"HKD": "7.789", "SGD": "1.361", "AUD": "1.522", "CAD": "1.361",
	},
	"JPY": {
		"CNY": "0.0488", "USD": "0.00673", "EUR": "0.00621", "GBP": "0.00537", "KRW": "9.052",
		"HKD": "0.0524", "SGD": "0.00917", "AUD": "0.01025", "CAD": "0.00917",
	},
	"EUR": {
		"CNY": "7.874", "USD": "1.086", "JPY": "161.2", "GBP": "0.866", "KRW": "1459.3",
		"HKD": "8.462", "SGD": "1.478", "AUD": "1.653", "CAD": "1.478",
	},
}

type pair struct {
	base, target currency.Code
}

// Table is an immutable mapping of reference rates. It is safe for
// concurrent use.
type Table struct {
	version string
	rates   map[pair]decimal.Decimal
}

// New builds a table from decimal strings keyed base -> target -> rate.
func New(version string, rows map[string]map[string]string) (*Table, error) {
	t := &Table{version: version, rates: make(map[pair]decimal.Decimal)}
	for b, targets := range rows {
		base, err := currency.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", version, err)
		}
		for q, s := range targets {
			target, err := currency.Parse(q)
			if err != nil {
				return nil, fmt.Errorf("reference %s: %w", version, err)
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("reference %s %s/%s: %w", version, base, target, err)
			}
			if !d.IsPositive() {
				return nil, fmt.Errorf("reference %s %s/%s: %w", version, base, target, rate.ErrNonPositiveRate)
			}
			t.rates[pair{base, target}] = d
		}
	}
	return t, nil
}

// Default returns the built-in table.
func Default() *Table {
	t, err := New(DefaultVersion, builtin)
	if err != nil {
		panic(err)
	}
	return t
}

// Version identifies the data set.
func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// Len is the number of stored (directional) entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rates)
}

// Lookup returns the stored rate for base/target, or the inverse of the
// stored target/base rate.
func (t *Table) Lookup(base, target currency.Code) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Decimal{}, false
	}
	if d, ok := t.rates[pair{base, target}]; ok {
		return d, true
	}
	if d, ok := t.rates[pair{target, base}]; ok {
		return decimal.NewFromInt(1).DivRound(d, rate.InversePrecision), true
	}
	return decimal.Decimal{}, false
}
