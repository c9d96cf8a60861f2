package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"github.com/vadiminshakov/spreadscan/internal/services/resolver"
	"go.uber.org/zap"
)

type fakeProvider struct {
	candles []domain.Candle
	err     error
}

func (f fakeProvider) GetKlines(_ context.Context, _ domain.InstrumentMapping, _ string, _ int) ([]domain.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.candles, nil
}

type fakeCandleStore struct {
	saved    []domain.Candle
	lastOpen map[string]time.Time
}

func (s *fakeCandleStore) Save(_ context.Context, batch []domain.Candle) error {
	s.saved = append(s.saved, batch...)
	return nil
}

func (s *fakeCandleStore) LastOpenTime(_ context.Context, exchange, symbol string) (time.Time, bool, error) {
	last, ok := s.lastOpen[exchange+"/"+symbol]
	return last, ok, nil
}

func newFeedResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	res, err := resolver.New([]domain.InstrumentMapping{
		{Exchange: "binance", BaseAsset: "BTC", Symbol: "BTCUSDT", Market: domain.MarketTypeFutures},
		{Exchange: "bybit", BaseAsset: "BTC", Symbol: "BTCUSDT", Market: domain.MarketTypeFutures},
	})
	require.NoError(t, err)
	return res
}

func bars(exchange string, base time.Time, n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Exchange: exchange,
			Symbol:   "BTCUSDT",
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     decimal.NewFromInt(100),
			High:     decimal.NewFromInt(100),
			Low:      decimal.NewFromInt(100),
			Close:    decimal.NewFromInt(100),
			Volume:   decimal.NewFromInt(1),
		}
	}

	return candles
}

func TestFeedSyncStoresAllProviders(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{}
	feed := NewFeed(newFeedResolver(t), map[string]KlineProvider{
		"binance": fakeProvider{candles: bars("binance", base, 3)},
		"bybit":   fakeProvider{candles: bars("bybit", base, 2)},
	}, store, []string{"BTC"}, zap.NewNop())

	n, err := feed.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Len(t, store.saved, 5)
}

// On resume only bars at or after the last stored open time are written; the
// last bar itself is re-upserted because it may have been stored while the
// candle was still open.
func TestFeedSyncResumesAfterLastStoredBar(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{lastOpen: map[string]time.Time{
		"binance/BTCUSDT": base.Add(3 * time.Minute),
		"bybit/BTCUSDT":   base.Add(3 * time.Minute),
	}}
	feed := NewFeed(newFeedResolver(t), map[string]KlineProvider{
		"binance": fakeProvider{candles: bars("binance", base, 5)},
		"bybit":   fakeProvider{candles: bars("bybit", base, 5)},
	}, store, []string{"BTC"}, zap.NewNop())

	n, err := feed.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n, "two fresh bars plus the re-upserted boundary bar per exchange")

	for _, c := range store.saved {
		require.False(t, c.OpenTime.Before(base.Add(3*time.Minute)))
	}
}

// One venue failing is logged and skipped; the others still sync.
func TestFeedSyncIsolatesProviderFailures(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{}
	feed := NewFeed(newFeedResolver(t), map[string]KlineProvider{
		"binance": fakeProvider{err: errors.New("502 bad gateway")},
		"bybit":   fakeProvider{candles: bars("bybit", base, 2)},
	}, store, []string{"BTC"}, zap.NewNop())

	n, err := feed.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, store.saved, 2)
	require.Equal(t, "bybit", store.saved[0].Exchange)
}

func TestFeedSyncSkipsExchangeWithoutProvider(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{}
	feed := NewFeed(newFeedResolver(t), map[string]KlineProvider{
		"bybit": fakeProvider{candles: bars("bybit", base, 2)},
	}, store, []string{"BTC"}, zap.NewNop())

	n, err := feed.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
