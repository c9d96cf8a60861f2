package quoter

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Bybit serves best bid/ask from the V5 tickers endpoint, category spot or
// linear per the mapping's market type.
type Bybit struct {
	client *bybit.Client
}

// NewBybit creates a Bybit quote source.
func NewBybit(client *bybit.Client) *Bybit {
	return &Bybit{client: client}
}

// BestBidAsk fetches the V5 ticker for the mapped instrument. The Bybit SDK
// does not take a context; the call is bounded by the HTTP client timeout
// set in clients.NewBybitClient, and the collector additionally abandons
// the fetch once its deadline passes.
func (b *Bybit) BestBidAsk(_ context.Context, mapping domain.InstrumentMapping) (domain.Quote, error) {
	symbol := bybit.SymbolV5(mapping.Symbol)

	var category bybit.CategoryV5
	switch mapping.Market {
	case domain.MarketTypeSpot:
		category = bybit.CategoryV5Spot
	case domain.MarketTypeFutures:
		category = bybit.CategoryV5Linear
	default:
		return domain.Quote{}, errors.Wrapf(domain.ErrUnsupported, "bybit market type %q", mapping.Market)
	}

	result, err := b.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: category,
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.Quote{}, errors.Wrapf(err, "bybit %s ticker for %s", category, mapping.Symbol)
	}

	var bidStr, askStr string
	switch mapping.Market {
	case domain.MarketTypeSpot:
		if len(result.Result.Spot.List) == 0 {
			return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bybit returned no spot ticker for %s", mapping.Symbol)
		}
		bidStr, askStr = result.Result.Spot.List[0].Bid1Price, result.Result.Spot.List[0].Ask1Price
	case domain.MarketTypeFutures:
		if len(result.Result.LinearInverse.List) == 0 {
			return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bybit returned no linear ticker for %s", mapping.Symbol)
		}
		bidStr, askStr = result.Result.LinearInverse.List[0].Bid1Price, result.Result.LinearInverse.List[0].Ask1Price
	}

	bid, err := decimal.NewFromString(bidStr)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bybit bid %q for %s", bidStr, mapping.Symbol)
	}
	ask, err := decimal.NewFromString(askStr)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "bybit ask %q for %s", askStr, mapping.Symbol)
	}

	return domain.NewQuote(mapping.Exchange, mapping.Symbol, bid, ask)
}
