package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fxresolver/internal/currency"
)

var _ Adapter = (*ExchangeRateHostAdapter)(nil)

// ExchangeRateHostAdapter fetches rates from the exchangerate.host API.
type ExchangeRateHostAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// NewExchangeRateHostAdapter creates a new ExchangeRateHostAdapter with the given configuration.
func NewExchangeRateHostAdapter(baseURL, apiKey string, timeout time.Duration) *ExchangeRateHostAdapter {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRateHostAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
		timeout: timeout,
	}
}

// Name implements Adapter.
func (p *ExchangeRateHostAdapter) Name() string { return "exchangerate_host" }

// getLatestURL forms the API URL for fetching the rate.
func (p *ExchangeRateHostAdapter) getLatestURL(base, target currency.Code) string {
	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("source", base.String())
	q.Set("currencies", target.String())
	return p.baseURL + "/live?" + q.Encode()
}

// exchangerate.host live API response structure
type erHostResponse struct {
	Success   bool                   `json:"success"`
	Source    string                 `json:"source"`
	Timestamp int64                  `json:"timestamp"`
	Quotes    map[string]json.Number `json:"quotes"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Resolve fetches the exchange rate for the given base/target currency pair.
func (p *ExchangeRateHostAdapter) Resolve(ctx context.Context, base, target currency.Code) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var result erHostResponse
	if f := getJSON(ctx, p.client, p.Name(), p.getLatestURL(base, target), &result); f != nil {
		return Result{Err: f}
	}
	if !result.Success {
		info := "success=false"
		if result.Error != nil {
			info = fmt.Sprintf("error %d: %s", result.Error.Code, result.Error.Info)
		}
		return Fail(InvalidResponse, p.Name(), fmt.Errorf("%s/%s: %s", base, target, info))
	}

	// The API returns quotes keyed as "BASEQUOTE", e.g. "EURMXN"
	key := base.String() + target.String()
	raw, ok := result.Quotes[key]
	if !ok {
		return Fail(RateNotFound, p.Name(), fmt.Errorf("no rate for %s in response", key))
	}

	ts := time.Now()
	if result.Timestamp > 0 {
		ts = time.Unix(result.Timestamp, 0)
	}
	return parseRate(p.Name(), base, target, raw.String(), ts)
}
