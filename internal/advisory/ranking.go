package advisory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// General tips appended to every non-empty ranking.
const (
	TipAuthorizedVenues = "Exchange at banks or authorized exchange offices; avoid airport and tourist-area counters"
	TipMinimalCash      = "Carry only a small amount of local cash; prefer card or mobile payment for the rest"
)

var (
	aboveAverage = decimal.RequireFromString("1.2")
	belowAverage = decimal.RequireFromString("0.8")
)

// Entry is one ranked conversion with the tip that applies to it, if any.
type Entry struct {
	Conversion rate.Conversion
	Tip        string
}

// Ranking is a batch of conversions from one amount, best first.
type Ranking struct {
	Amount  decimal.Decimal
	From    currency.Code
	Entries []Entry
	Tips    []string
}

// Best returns the top-ranked conversion.
func (r Ranking) Best() (rate.Conversion, bool) {
	if len(r.Entries) == 0 {
		return rate.Conversion{}, false
	}
	return r.Entries[0].Conversion, true
}

// Rank orders conversions by converted amount, descending, and derives the
// tips. Ties are ordered by target code so the output is deterministic.
func Rank(amount decimal.Decimal, from currency.Code, conversions []rate.Conversion) Ranking {
	sorted := make([]rate.Conversion, len(conversions))
	copy(sorted, conversions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Converted.Cmp(sorted[j].Converted); c != 0 {
			return c > 0
		}
		return sorted[i].To < sorted[j].To
	})

	out := Ranking{Amount: amount, From: from, Entries: make([]Entry, len(sorted))}
	if len(sorted) == 0 {
		// an empty batch gets no tips, general ones included
		return out
	}

	sum := decimal.Zero
	for _, c := range sorted {
		sum = sum.Add(c.Converted)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(sorted))))
	high := mean.Mul(aboveAverage)
	low := mean.Mul(belowAverage)

	top := fmt.Sprintf("%s offers the most favorable rate; consider pre-purchasing it", sorted[0].To)
	out.Tips = append(out.Tips, top)
	for i, c := range sorted {
		out.Entries[i].Conversion = c
		var tip string
		switch {
		case c.Converted.GreaterThan(high):
			tip = fmt.Sprintf("%s is above-average value; exchanging more of it stretches the budget", c.To)
		case c.Converted.LessThan(low):
			tip = fmt.Sprintf("%s is below-average value; exchange only what you need", c.To)
		}
		if tip != "" {
			out.Tips = append(out.Tips, tip)
		}
		if i == 0 {
			tip = top
		}
		out.Entries[i].Tip = tip
	}
	out.Tips = append(out.Tips, TipAuthorizedVenues, TipMinimalCash)
	return out
}
