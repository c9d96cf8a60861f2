package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

const defaultBitstampBaseURL = "https://www.bitstamp.net"

// BitstampClient is a minimal REST client for the Bitstamp public API.
// There is no maintained Go SDK for Bitstamp, so the two endpoints the
// scanner needs are called directly.
type BitstampClient struct {
	baseURL    string
	httpClient *http.Client
}

// BitstampOption configures the client.
type BitstampOption func(*BitstampClient)

// WithBitstampBaseURL overrides the API root, used in tests.
func WithBitstampBaseURL(baseURL string) BitstampOption {
	return func(c *BitstampClient) {
		c.baseURL = baseURL
	}
}

// NewBitstampClient returns a Bitstamp client with the given request timeout.
func NewBitstampClient(timeout time.Duration, opts ...BitstampOption) *BitstampClient {
	c := &BitstampClient{
		baseURL:    defaultBitstampBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BitstampTicker is the ticker response; Bitstamp returns all prices as
// strings.
type BitstampTicker struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

// BitstampOHLC is one OHLC bar from the /ohlc endpoint.
type BitstampOHLC struct {
	Timestamp string `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

type bitstampOHLCResponse struct {
	Data struct {
		Pair string         `json:"pair"`
		OHLC []BitstampOHLC `json:"ohlc"`
	} `json:"data"`
}

// Ticker fetches the current ticker for a pair, e.g. "btcusd".
func (c *BitstampClient) Ticker(ctx context.Context, pair string) (BitstampTicker, error) {
	var ticker BitstampTicker
	path := fmt.Sprintf("%s/api/v2/ticker/%s/", c.baseURL, pair)
	if err := c.get(ctx, path, &ticker); err != nil {
		return BitstampTicker{}, errors.Wrapf(err, "bitstamp ticker for %s", pair)
	}

	return ticker, nil
}

// OHLC fetches up to limit bars of step-second candles for a pair.
func (c *BitstampClient) OHLC(ctx context.Context, pair string, step, limit int) ([]BitstampOHLC, error) {
	var resp bitstampOHLCResponse
	path := fmt.Sprintf("%s/api/v2/ohlc/%s/?step=%d&limit=%d", c.baseURL, pair, step, limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, errors.Wrapf(err, "bitstamp ohlc for %s", pair)
	}

	return resp.Data.OHLC, nil
}

func (c *BitstampClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}
