package quoter

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/clients"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Bitstamp serves best bid/ask from the public ticker endpoint. Bitstamp
// trades spot only; a futures mapping is a capability error.
type Bitstamp struct {
	client *clients.BitstampClient
}

// NewBitstamp creates a Bitstamp quote source.
func NewBitstamp(client *clients.BitstampClient) *Bitstamp {
	return &Bitstamp{client: client}
}

// BestBidAsk fetches the ticker for the mapped instrument.
func (b *Bitstamp) BestBidAsk(ctx context.Context, mapping domain.InstrumentMapping) (domain.Quote, error) {
	if mapping.Market != domain.MarketTypeSpot {
		return domain.Quote{}, errors.Wrapf(domain.ErrUnsupported, "bitstamp has no %s market", mapping.Market)
	}

	ticker, err := b.client.Ticker(ctx, mapping.Symbol)
	if err != nil {
		return domain.Quote{}, err
	}

	if ticker.Bid == "" || ticker.Ask == "" {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bitstamp ticker for %s is missing bid or ask", mapping.Symbol)
	}

	bid, err := decimal.NewFromString(ticker.Bid)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bitstamp bid %q for %s", ticker.Bid, mapping.Symbol)
	}
	ask, err := decimal.NewFromString(ticker.Ask)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bitstamp ask %q for %s", ticker.Ask, mapping.Symbol)
	}

	return domain.NewQuote(mapping.Exchange, mapping.Symbol, bid, ask)
}
