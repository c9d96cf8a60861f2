package quoter

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Binance serves best bid/ask from the spot or USD-M futures book ticker,
// selected by the mapping's market type.
type Binance struct {
	spot    *binance.Client
	futures *futures.Client
}

// NewBinance creates a Binance quote source.
func NewBinance(spot *binance.Client, fut *futures.Client) *Binance {
	return &Binance{spot: spot, futures: fut}
}

// BestBidAsk fetches the book ticker for the mapped instrument.
func (b *Binance) BestBidAsk(ctx context.Context, mapping domain.InstrumentMapping) (domain.Quote, error) {
	var bidStr, askStr string

	switch mapping.Market {
	case domain.MarketTypeSpot:
		tickers, err := b.spot.NewListBookTickersService().Symbol(mapping.Symbol).Do(ctx)
		if err != nil {
			return domain.Quote{}, errors.Wrapf(err, "binance spot book ticker for %s", mapping.Symbol)
		}
		if len(tickers) == 0 {
			return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "binance returned no book ticker for %s", mapping.Symbol)
		}
		bidStr, askStr = tickers[0].BidPrice, tickers[0].AskPrice
	case domain.MarketTypeFutures:
		tickers, err := b.futures.NewListBookTickersService().Symbol(mapping.Symbol).Do(ctx)
		if err != nil {
			return domain.Quote{}, errors.Wrapf(err, "binance futures book ticker for %s", mapping.Symbol)
		}
		if len(tickers) == 0 {
			return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "binance returned no book ticker for %s", mapping.Symbol)
		}
		bidStr, askStr = tickers[0].BidPrice, tickers[0].AskPrice
	default:
		return domain.Quote{}, errors.Wrapf(domain.ErrUnsupported, "binance market type %q", mapping.Market)
	}

	bid, err := decimal.NewFromString(bidStr)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "binance bid %q for %s", bidStr, mapping.Symbol)
	}
	ask, err := decimal.NewFromString(askStr)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(domain.ErrMalformedQuote, "binance ask %q for %s", askStr, mapping.Symbol)
	}

	return domain.NewQuote(mapping.Exchange, mapping.Symbol, bid, ask)
}
