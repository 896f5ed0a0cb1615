package rate

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
)

// DisplayPlaces is the number of decimal places used for presented amounts.
const DisplayPlaces = 2

// ErrNegativeAmount is returned for amounts below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// Conversion is a computed projection of an amount through a rate. It is
// built per request and never stored.
type Conversion struct {
	Amount    decimal.Decimal
	From      currency.Code
	To        currency.Code
	Converted decimal.Decimal
	Rate      ExchangeRate
	Timestamp time.Time
}

// NewConversion multiplies amount by r at full precision.
func NewConversion(amount decimal.Decimal, r ExchangeRate, ts time.Time) (Conversion, error) {
	if amount.IsNegative() {
		return Conversion{}, ErrNegativeAmount
	}
	return Conversion{
		Amount:    amount,
		From:      r.Base(),
		To:        r.Target(),
		Converted: amount.Mul(r.Rate()),
		Rate:      r,
		Timestamp: ts.UTC(),
	}, nil
}

// DisplayAmount is Converted rounded for presentation.
func (c Conversion) DisplayAmount() decimal.Decimal {
	return c.Converted.Round(DisplayPlaces)
}
