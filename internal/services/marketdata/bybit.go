package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// BybitKlineProvider fetches klines from the V5 market API, category spot
// or linear per the mapping's market type.
type BybitKlineProvider struct {
	client *bybit.Client
}

// NewBybitKlineProvider creates a Bybit kline provider.
func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// GetKlines fetches kline data from Bybit. The SDK does not take a context;
// the call is bounded by the HTTP client timeout set in
// clients.NewBybitClient.
func (p *BybitKlineProvider) GetKlines(_ context.Context, mapping domain.InstrumentMapping, interval string, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	bybitInterval, err := convertIntervalToBybit(interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", interval)
	}

	var category bybit.CategoryV5
	switch mapping.Market {
	case domain.MarketTypeSpot:
		category = bybit.CategoryV5Spot
	case domain.MarketTypeFutures:
		category = bybit.CategoryV5Linear
	default:
		return nil, errors.Wrapf(domain.ErrUnsupported, "bybit market type %q", mapping.Market)
	}

	result, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: category,
		Symbol:   bybit.SymbolV5(mapping.Symbol),
		Interval: bybit.Interval(bybitInterval),
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", mapping.Symbol)
	}
	if result == nil || len(result.Result.List) == 0 {
		return nil, errors.Errorf("no kline data returned from Bybit for %s", mapping.Symbol)
	}

	// Bybit returns newest-first; store ascending like the other providers.
	list := result.Result.List
	candles := make([]domain.Candle, len(list))
	for i, k := range list {
		msec, err := strconv.ParseInt(k.StartTime, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
		}

		candle := domain.Candle{
			Exchange: mapping.Exchange,
			Symbol:   mapping.Symbol,
			OpenTime: time.UnixMilli(msec),
		}
		if candle.Open, err = decimal.NewFromString(k.Open); err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		if candle.High, err = decimal.NewFromString(k.High); err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		if candle.Low, err = decimal.NewFromString(k.Low); err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		if candle.Close, err = decimal.NewFromString(k.Close); err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		if candle.Volume, err = decimal.NewFromString(k.Volume); err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		candles[len(list)-1-i] = candle
	}

	return candles, nil
}

// convertIntervalToBybit converts standard interval format to Bybit format.
// Standard format: "1m", "5m", "1h", "4h", "1d". Bybit format: "1", "5",
// "60", "240", "D".
func convertIntervalToBybit(interval string) (string, error) {
	if len(interval) < 2 {
		return "", fmt.Errorf("invalid interval format: %s", interval)
	}

	unit := interval[len(interval)-1]
	numberPart := interval[:len(interval)-1]

	switch unit {
	case 'm':
		return numberPart, nil
	case 'h':
		n, err := strconv.ParseInt(numberPart, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid interval number: %s", interval)
		}
		return strconv.FormatInt(n*60, 10), nil
	case 'd':
		return "D", nil
	case 'w':
		return "W", nil
	default:
		return "", fmt.Errorf("unsupported interval unit: %c", unit)
	}
}
