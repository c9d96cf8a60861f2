package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"go.uber.org/zap"
)

type fakeStore map[string][]domain.Candle

func (f fakeStore) Candles(_ context.Context, exchange, _ string, _ int) ([]domain.Candle, error) {
	return f[exchange], nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(exchange, baseAsset string) (domain.InstrumentMapping, bool) {
	return domain.InstrumentMapping{
		Exchange:  exchange,
		BaseAsset: baseAsset,
		Symbol:    baseAsset + "USDT",
		Market:    domain.MarketTypeFutures,
	}, true
}

func series(exchange string, base time.Time, closes ...string) []domain.Candle {
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		price := decimal.RequireFromString(c)
		candles[i] = domain.Candle{
			Exchange: exchange,
			Symbol:   "BTCUSDT",
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   decimal.NewFromInt(1),
		}
	}

	return candles
}

// Spread opens to 0.5% on the second bar and fully converges on the third:
// one round trip, long leg on the cheap venue, short leg on the expensive
// one. With zero fees the profit is the captured convergence.
func TestRunCapturesConvergence(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := fakeStore{
		"binance": series("binance", base, "100", "100", "100.2"),
		"bybit":   series("bybit", base, "100", "100.5", "100.2"),
	}
	b := New(store, fakeResolver{}, domain.FeeSchedule{}, zap.NewNop())

	report, err := b.Run(context.Background(), Params{
		BaseAsset: "BTC",
		ExchangeA: "binance",
		ExchangeB: "bybit",
	})
	require.NoError(t, err)
	require.Equal(t, 3, report.Bars)
	require.Len(t, report.Trades, 1)

	trade := report.Trades[0]
	require.Equal(t, "binance", trade.BuyExchange)
	require.Equal(t, "bybit", trade.SellExchange)
	require.True(t, trade.EntryTime.Equal(base.Add(time.Minute)))
	require.True(t, trade.ExitTime.Equal(base.Add(2*time.Minute)))

	// units = 10000/100; long gains 0.2 per unit, short gains 0.3 per unit
	require.True(t, trade.PnL.Equal(decimal.NewFromInt(50)), "got %s", trade.PnL)
	require.True(t, report.TotalPnL.Equal(decimal.NewFromInt(50)))
}

// A spread that never converges is force-closed after MaxHoldBars.
func TestRunForceClosesAfterMaxHold(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := fakeStore{
		"binance": series("binance", base, "100", "100", "100", "100", "100"),
		"bybit":   series("bybit", base, "100", "100.5", "100.5", "100.5", "100.5"),
	}
	b := New(store, fakeResolver{}, domain.FeeSchedule{}, zap.NewNop())

	report, err := b.Run(context.Background(), Params{
		BaseAsset:   "BTC",
		ExchangeA:   "binance",
		ExchangeB:   "bybit",
		MaxHoldBars: 2,
	})
	require.NoError(t, err)
	require.Len(t, report.Trades, 1)

	trade := report.Trades[0]
	require.True(t, trade.ExitTime.Equal(base.Add(3*time.Minute)))
	// nothing converged, nothing earned
	require.True(t, trade.PnL.IsZero(), "got %s", trade.PnL)
}

// Entry threshold includes both venues' fees: a 0.5% spread is not worth
// entering when fees alone eat 0.8%.
func TestRunRespectsFeeAwareEntryThreshold(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := fakeStore{
		"binance": series("binance", base, "100", "100", "100"),
		"bybit":   series("bybit", base, "100", "100.5", "100"),
	}
	fees := domain.FeeSchedule{
		"binance": decimal.RequireFromString("0.004"),
		"bybit":   decimal.RequireFromString("0.004"),
	}
	b := New(store, fakeResolver{}, fees, zap.NewNop())

	report, err := b.Run(context.Background(), Params{
		BaseAsset: "BTC",
		ExchangeA: "binance",
		ExchangeB: "bybit",
	})
	require.NoError(t, err)
	require.Empty(t, report.Trades)
}

// Bars present on only one venue are dropped before the replay.
func TestRunAlignsOnOpenTime(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seriesA := series("binance", base, "100", "100", "100")
	seriesB := series("bybit", base.Add(time.Minute), "100", "100")

	store := fakeStore{"binance": seriesA, "bybit": seriesB}
	b := New(store, fakeResolver{}, domain.FeeSchedule{}, zap.NewNop())

	report, err := b.Run(context.Background(), Params{
		BaseAsset: "BTC",
		ExchangeA: "binance",
		ExchangeB: "bybit",
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Bars)
}

func TestRunFailsWithoutOverlap(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := fakeStore{
		"binance": series("binance", base, "100"),
		"bybit":   series("bybit", base.Add(time.Hour), "100"),
	}
	b := New(store, fakeResolver{}, domain.FeeSchedule{}, zap.NewNop())

	_, err := b.Run(context.Background(), Params{
		BaseAsset: "BTC",
		ExchangeA: "binance",
		ExchangeB: "bybit",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no overlapping candle history")
}
