// Package rates provides an HTTP client for a Frankfurter-style exchange
// rate API. The client fails closed: any network, status, or parse problem
// returns an error and no rates.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/govalues/decimal"
)

// DefaultBaseURL is the public Frankfurter endpoint.
const DefaultBaseURL = "https://api.frankfurter.app"

const defaultTimeout = 10 * time.Second

var (
	errUnexpectedStatus = errors.New("unexpected http status code")
	errDecodeBody       = errors.New("error decoding rate response body")
	errBadRate          = errors.New("rate value is not a valid decimal")
)

// Client fetches latest exchange rates relative to a base currency.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a rate client. A nil httpClient gets a default client
// with a bounded timeout; an empty baseURL falls back to DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// Latest returns, for the given base code, a mapping of other currency
// codes to rate-per-unit-of-base.
func (c *Client) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	u := c.baseURL + "/latest?from=" + url.QueryEscape(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var body latestResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", errDecodeBody, err)
	}

	out := make(map[string]decimal.Decimal, len(body.Rates))
	for code, raw := range body.Rates {
		d, err := decimal.Parse(raw.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%s", errBadRate, code, raw.String())
		}
		out[code] = d
	}
	return out, nil
}
