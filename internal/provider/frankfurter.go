package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

var (
	_ Adapter         = (*FrankfurterAdapter)(nil)
	_ HistoryProvider = (*FrankfurterAdapter)(nil)
)

const frankfurterDateLayout = "2006-01-02"

// FrankfurterAdapter fetches ECB reference rates from the Frankfurter API.
type FrankfurterAdapter struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewFrankfurterAdapter creates a new FrankfurterAdapter.
func NewFrankfurterAdapter(baseURL string, timeout time.Duration) *FrankfurterAdapter {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterAdapter{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// Name implements Adapter.
func (p *FrankfurterAdapter) Name() string { return "frankfurter" }

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

type frankfurterSeriesResponse struct {
	Base  string                            `json:"base"`
	Rates map[string]map[string]json.Number `json:"rates"`
}

// Resolve retrieves the latest rate between base and target.
func (p *FrankfurterAdapter) Resolve(ctx context.Context, base, target currency.Code) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/latest?base=%s&symbols=%s", p.baseURL, url.QueryEscape(base.String()), url.QueryEscape(target.String()))
	var result frankfurterResponse
	if f := getJSON(ctx, p.client, p.Name(), reqURL, &result); f != nil {
		return Result{Err: f}
	}

	raw, ok := result.Rates[target.String()]
	if !ok {
		return Fail(RateNotFound, p.Name(), fmt.Errorf("no rate for %s in response", target))
	}

	// Parse date from response if possible, otherwise use current time
	ts, err := time.Parse(frankfurterDateLayout, result.Date)
	if err != nil {
		ts = time.Now()
	}
	return parseRate(p.Name(), base, target, raw.String(), ts)
}

// History retrieves the daily series between start and end, inclusive.
// Frankfurter only publishes working days, so the series may have gaps.
func (p *FrankfurterAdapter) History(ctx context.Context, base, target currency.Code, start, end time.Time) ([]rate.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/%s..%s?base=%s&symbols=%s", p.baseURL,
		start.Format(frankfurterDateLayout), end.Format(frankfurterDateLayout),
		url.QueryEscape(base.String()), url.QueryEscape(target.String()))

	var result frankfurterSeriesResponse
	if f := getJSON(ctx, p.client, p.Name(), reqURL, &result); f != nil {
		return nil, f
	}

	points := make([]rate.Point, 0, len(result.Rates))
	for day, rates := range result.Rates {
		raw, ok := rates[target.String()]
		if !ok {
			continue
		}
		date, err := time.Parse(frankfurterDateLayout, day)
		if err != nil {
			return nil, &Failure{Kind: InvalidResponse, Provider: p.Name(), Err: fmt.Errorf("bad date %q: %w", day, err)}
		}
		d, err := decimal.NewFromString(raw.String())
		if err != nil || !d.IsPositive() {
			return nil, &Failure{Kind: InvalidResponse, Provider: p.Name(), Err: fmt.Errorf("bad rate %q on %s", raw, day)}
		}
		points = append(points, rate.Point{Date: date.UTC(), Rate: d, Source: rate.LiveProvider})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
