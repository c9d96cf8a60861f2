package marketdata

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// BinanceKlineProvider fetches klines from the spot or USD-M futures API,
// selected by the mapping's market type.
type BinanceKlineProvider struct {
	spot    *binance.Client
	futures *futures.Client
}

// NewBinanceKlineProvider creates a Binance kline provider.
func NewBinanceKlineProvider(spot *binance.Client, fut *futures.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{spot: spot, futures: fut}
}

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, mapping domain.InstrumentMapping, interval string, limit int) ([]domain.Candle, error) {
	switch mapping.Market {
	case domain.MarketTypeSpot:
		klines, err := p.spot.NewKlinesService().
			Symbol(mapping.Symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch spot klines from Binance for %s", mapping.Symbol)
		}

		candles := make([]domain.Candle, len(klines))
		for i, k := range klines {
			candle, err := binanceCandle(mapping, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
			if err != nil {
				return nil, errors.Wrapf(err, "bad spot kline at index %d", i)
			}
			candles[i] = candle
		}
		return candles, nil
	case domain.MarketTypeFutures:
		klines, err := p.futures.NewKlinesService().
			Symbol(mapping.Symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch futures klines from Binance for %s", mapping.Symbol)
		}

		candles := make([]domain.Candle, len(klines))
		for i, k := range klines {
			candle, err := binanceCandle(mapping, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
			if err != nil {
				return nil, errors.Wrapf(err, "bad futures kline at index %d", i)
			}
			candles[i] = candle
		}
		return candles, nil
	default:
		return nil, errors.Wrapf(domain.ErrUnsupported, "binance market type %q", mapping.Market)
	}
}

func binanceCandle(mapping domain.InstrumentMapping, openTime int64, open, high, low, closePrice, volume string) (domain.Candle, error) {
	candle := domain.Candle{
		Exchange: mapping.Exchange,
		Symbol:   mapping.Symbol,
		OpenTime: time.UnixMilli(openTime),
	}

	var err error
	if candle.Open, err = decimal.NewFromString(open); err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse open price")
	}
	if candle.High, err = decimal.NewFromString(high); err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse high price")
	}
	if candle.Low, err = decimal.NewFromString(low); err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse low price")
	}
	if candle.Close, err = decimal.NewFromString(closePrice); err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse close price")
	}
	if candle.Volume, err = decimal.NewFromString(volume); err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse volume")
	}

	return candle, nil
}
