// Package quotes fetches spot prices from the upstream price feed.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamUnavailable wraps every failure talking to the price feed.
var ErrUpstreamUnavailable = errors.New("price feed unavailable")

// Quote holds USD prices; nil means the feed did not report the asset.
type Quote struct {
	BitcoinUSD  *float64
	EthereumUSD *float64
}

// Client is a single-shot passthrough to a CoinGecko-compatible simple/price endpoint.
// It neither retries nor caches.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient returns a Client for url with the given request timeout.
func NewClient(url string, timeout time.Duration, opts ...func(*Client)) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

type priceEntry struct {
	USD *float64 `json:"usd"`
}

// Fetch requests current prices.
func (c *Client) Fetch(ctx context.Context) (Quote, error) {
	if strings.TrimSpace(c.URL) == "" {
		return Quote{}, fmt.Errorf("%w: no feed url configured", ErrUpstreamUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Quote{}, fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string]priceEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("%w: decode: %w", ErrUpstreamUnavailable, err)
	}
	return Quote{
		BitcoinUSD:  payload["bitcoin"].USD,
		EthereumUSD: payload["ethereum"].USD,
	}, nil
}
