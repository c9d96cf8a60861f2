package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/clients"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// BitstampKlineProvider fetches OHLC bars from the public Bitstamp API.
type BitstampKlineProvider struct {
	client *clients.BitstampClient
}

// NewBitstampKlineProvider creates a Bitstamp kline provider.
func NewBitstampKlineProvider(client *clients.BitstampClient) *BitstampKlineProvider {
	return &BitstampKlineProvider{client: client}
}

// GetKlines fetches OHLC data from Bitstamp. Spot only.
func (p *BitstampKlineProvider) GetKlines(ctx context.Context, mapping domain.InstrumentMapping, interval string, limit int) ([]domain.Candle, error) {
	if mapping.Market != domain.MarketTypeSpot {
		return nil, errors.Wrapf(domain.ErrUnsupported, "bitstamp has no %s market", mapping.Market)
	}

	step, err := intervalSeconds(interval)
	if err != nil {
		return nil, err
	}

	bars, err := p.client.OHLC(ctx, mapping.Symbol, step, limit)
	if err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, len(bars))
	for i, bar := range bars {
		sec, err := strconv.ParseInt(bar.Timestamp, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse timestamp at index %d", i)
		}

		candle := domain.Candle{
			Exchange: mapping.Exchange,
			Symbol:   mapping.Symbol,
			OpenTime: time.Unix(sec, 0),
		}
		if candle.Open, err = decimal.NewFromString(bar.Open); err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		if candle.High, err = decimal.NewFromString(bar.High); err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		if candle.Low, err = decimal.NewFromString(bar.Low); err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		if candle.Close, err = decimal.NewFromString(bar.Close); err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		if candle.Volume, err = decimal.NewFromString(bar.Volume); err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		candles[i] = candle
	}

	return candles, nil
}

func intervalSeconds(interval string) (int, error) {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	return int(d / time.Second), nil
}
