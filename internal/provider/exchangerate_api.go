package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fxresolver/internal/currency"
)

var _ Adapter = (*ExchangeRateAPIAdapter)(nil)

// ExchangeRateAPIAdapter fetches rates from exchangerate-api.com (v4, keyless).
type ExchangeRateAPIAdapter struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewExchangeRateAPIAdapter creates a new ExchangeRateAPIAdapter.
func NewExchangeRateAPIAdapter(baseURL string, timeout time.Duration) *ExchangeRateAPIAdapter {
	if baseURL == "" {
		baseURL = "https://api.exchangerate-api.com/v4"
	}
	return &ExchangeRateAPIAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// Name implements Adapter.
func (p *ExchangeRateAPIAdapter) Name() string { return "exchangerate_api" }

type erAPIResponse struct {
	Base            string                 `json:"base"`
	TimeLastUpdated int64                  `json:"time_last_updated"`
	Rates           map[string]json.Number `json:"rates"`
}

// Resolve fetches the full table for base and picks target out of it.
func (p *ExchangeRateAPIAdapter) Resolve(ctx context.Context, base, target currency.Code) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/latest/%s", p.baseURL, url.PathEscape(base.String()))
	var result erAPIResponse
	if f := getJSON(ctx, p.client, p.Name(), reqURL, &result); f != nil {
		return Result{Err: f}
	}
	if !strings.EqualFold(result.Base, base.String()) {
		return Fail(InvalidResponse, p.Name(), fmt.Errorf("asked for base %s, got %q", base, result.Base))
	}

	raw, ok := result.Rates[target.String()]
	if !ok {
		return Fail(RateNotFound, p.Name(), fmt.Errorf("no rate for %s in response", target))
	}

	ts := time.Now()
	if result.TimeLastUpdated > 0 {
		ts = time.Unix(result.TimeLastUpdated, 0)
	}
	return parseRate(p.Name(), base, target, raw.String(), ts)
}
