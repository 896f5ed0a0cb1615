package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBody = 512

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// getJSON performs a GET and decodes a 200 response into out. Any problem
// is returned as an already-classified Failure.
func getJSON(ctx context.Context, client *http.Client, name, reqURL string, out any) *Failure {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return Fail(InvalidResponse, name, fmt.Errorf("request creation failed: %w", err)).Err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return classifyTransport(name, err).Err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
			return Fail(RateNotFound, name, err).Err
		case resp.StatusCode >= http.StatusInternalServerError:
			return Fail(Unreachable, name, err).Err
		default:
			return Fail(InvalidResponse, name, err).Err
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransport(name, fmt.Errorf("%w: %w", ctx.Err(), err)).Err
		}
		return Fail(InvalidResponse, name, fmt.Errorf("decode response: %w", err)).Err
	}
	return nil
}
