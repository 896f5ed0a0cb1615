// Package currency defines validated ISO-4217 style currency codes and the
// catalog of currencies the service knows about.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a validated 3-letter uppercase currency code.
type Code string

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// ErrInvalidCode is the umbrella error for any rejected currency code.
var ErrInvalidCode = errors.New("invalid currency code")

// ErrInvalidFormat indicates the code is not three ASCII letters.
var ErrInvalidFormat = fmt.Errorf("%w: expected 3 letters", ErrInvalidCode)

// ErrUnsupported indicates a well-formed code that is not in the catalog.
var ErrUnsupported = fmt.Errorf("%w: unsupported currency", ErrInvalidCode)

// Info describes a catalog entry.
type Info struct {
	Code   Code   `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var catalog = []Info{
	{"CNY", "Chinese Yuan", "¥"},
	{"USD", "US Dollar", "$"},
	{"EUR", "Euro", "€"},
	{"GBP", "British Pound", "£"},
	{"JPY", "Japanese Yen", "¥"},
	{"KRW", "South Korean Won", "₩"},
	{"HKD", "Hong Kong Dollar", "HK$"},
	{"SGD", "Singapore Dollar", "S$"},
	{"AUD", "Australian Dollar", "A$"},
	{"CAD", "Canadian Dollar", "C$"},
	{"CHF", "Swiss Franc", "CHF"},
	{"NZD", "New Zealand Dollar", "NZ$"},
	{"SEK", "Swedish Krona", "kr"},
	{"NOK", "Norwegian Krone", "kr"},
	{"INR", "Indian Rupee", "₹"},
	{"MXN", "Mexican Peso", "MX$"},
	{"THB", "Thai Baht", "฿"},
}

var known = func() map[Code]Info {
	m := make(map[Code]Info, len(catalog))
	for _, c := range catalog {
		m[c.Code] = c
	}
	return m
}()

// IsWellFormed checks whether a string is a 3-letter code (case-insensitive).
func IsWellFormed(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Parse normalizes s and validates it against the catalog.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if !IsWellFormed(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	c := Code(strings.ToUpper(s))
	if _, ok := known[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	return c, nil
}

// ParsePair splits a "BASE/TARGET" string and validates both sides.
func ParsePair(pair string) (base, target Code, err error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: pair %q", ErrInvalidFormat, pair)
	}
	if base, err = Parse(parts[0]); err != nil {
		return "", "", err
	}
	if target, err = Parse(parts[1]); err != nil {
		return "", "", err
	}
	return base, target, nil
}

// Lookup returns catalog details for c.
func Lookup(c Code) (Info, bool) {
	info, ok := known[c]
	return info, ok
}

// List returns the catalog in a stable order.
func List() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}
