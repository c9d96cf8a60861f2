// Package quoter provides best-bid/ask quote sources for the supported
// exchanges behind a single Quoter interface, plus the registry that maps
// configured exchange names to constructed sources.
package quoter

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/spreadscan/internal/clients"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Quoter returns one best-bid/ask snapshot for an instrument, or an error.
// Implementations are safe for concurrent use.
type Quoter interface {
	BestBidAsk(ctx context.Context, mapping domain.InstrumentMapping) (domain.Quote, error)
}

// Registry maps exchange names to their quote sources.
type Registry map[string]Quoter

// NewRegistry constructs a Quoter for every configured exchange name.
// Unknown names fail here, at configuration-validation time, not at first
// use. Credentials are attached when present in the environment; all three
// exchanges serve public tickers without them.
func NewRegistry(exchanges []string, requestTimeout time.Duration) (Registry, error) {
	registry := make(Registry, len(exchanges))
	for _, name := range exchanges {
		apiKey, apiSecret, _ := clients.Credentials(name)

		switch name {
		case "binance":
			registry[name] = NewBinance(
				clients.NewBinanceClient(apiKey, apiSecret),
				clients.NewBinanceFuturesClient(apiKey, apiSecret),
			)
		case "bybit":
			registry[name] = NewBybit(clients.NewBybitClient(apiKey, apiSecret, requestTimeout))
		case "bitstamp":
			registry[name] = NewBitstamp(clients.NewBitstampClient(requestTimeout))
		default:
			return nil, errors.Errorf("unknown exchange %q in configuration", name)
		}
	}

	return registry, nil
}

// Get returns the quote source for an exchange name.
func (r Registry) Get(exchange string) (Quoter, bool) {
	q, ok := r[exchange]
	return q, ok
}
