// Package backtest replays stored candle history through a simplified
// spread-convergence simulation for one asset across two exchanges.
package backtest

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Params configures one backtest run.
type Params struct {
	BaseAsset string
	// ExchangeA and ExchangeB are the two venues whose stored history is
	// replayed against each other.
	ExchangeA string
	ExchangeB string
	// ProfitTargetPct is the net spread (above break-even) required to
	// enter a position, in percent. Default 0.2.
	ProfitTargetPct decimal.Decimal
	// ExitThresholdPct closes the position once the gross spread converges
	// below it, in percent. Default 0.05.
	ExitThresholdPct decimal.Decimal
	// MaxHoldBars closes the position after this many bars even without
	// convergence. Default 10.
	MaxHoldBars int
	// Notional is the simulated position size in quote currency.
	Notional decimal.Decimal
}

// Trade is one completed round trip of the simulation.
type Trade struct {
	EntryTime      time.Time
	ExitTime       time.Time
	BuyExchange    string
	SellExchange   string
	EntrySpreadPct decimal.Decimal
	ExitSpreadPct  decimal.Decimal
	PnL            decimal.Decimal
}

// Report summarizes a backtest run.
type Report struct {
	BaseAsset string
	Bars      int
	Trades    []Trade
	TotalPnL  decimal.Decimal
}

// CandleReader provides stored history for the replay.
type CandleReader interface {
	Candles(ctx context.Context, exchange, symbol string, limit int) ([]domain.Candle, error)
}

// InstrumentResolver maps (exchange, asset) to the stored symbol.
type InstrumentResolver interface {
	Resolve(exchange, baseAsset string) (domain.InstrumentMapping, bool)
}

// Backtester replays close-price series aligned on open time. Given fixed
// stored data the result is deterministic.
type Backtester struct {
	store    CandleReader
	resolver InstrumentResolver
	fees     domain.FeeSchedule
	logger   *zap.Logger
}

// New creates a Backtester.
func New(store CandleReader, resolver InstrumentResolver, fees domain.FeeSchedule, logger *zap.Logger) *Backtester {
	return &Backtester{store: store, resolver: resolver, fees: fees, logger: logger}
}

type position struct {
	open         bool
	entryTime    time.Time
	entrySpread  decimal.Decimal
	entryA       decimal.Decimal
	entryB       decimal.Decimal
	buyExchange  string
	sellExchange string
	barsHeld     int
}

// Run replays the stored history for the configured asset pair.
func (b *Backtester) Run(ctx context.Context, params Params) (Report, error) {
	if params.ProfitTargetPct.IsZero() {
		params.ProfitTargetPct = decimal.RequireFromString("0.2")
	}
	if params.ExitThresholdPct.IsZero() {
		params.ExitThresholdPct = decimal.RequireFromString("0.05")
	}
	if params.MaxHoldBars <= 0 {
		params.MaxHoldBars = 10
	}
	if params.Notional.IsZero() {
		params.Notional = decimal.NewFromInt(10000)
	}

	mappingA, ok := b.resolver.Resolve(params.ExchangeA, params.BaseAsset)
	if !ok {
		return Report{}, errors.Errorf("%s has no mapping for %s", params.ExchangeA, params.BaseAsset)
	}
	mappingB, ok := b.resolver.Resolve(params.ExchangeB, params.BaseAsset)
	if !ok {
		return Report{}, errors.Errorf("%s has no mapping for %s", params.ExchangeB, params.BaseAsset)
	}

	seriesA, err := b.store.Candles(ctx, params.ExchangeA, mappingA.Symbol, 0)
	if err != nil {
		return Report{}, err
	}
	seriesB, err := b.store.Candles(ctx, params.ExchangeB, mappingB.Symbol, 0)
	if err != nil {
		return Report{}, err
	}

	times, closesA, closesB := alignSeries(seriesA, seriesB)
	if len(times) == 0 {
		return Report{}, errors.Errorf("no overlapping candle history for %s between %s and %s, run the feed first",
			params.BaseAsset, params.ExchangeA, params.ExchangeB)
	}

	feeA := b.fees.FeeFor(params.ExchangeA)
	feeB := b.fees.FeeFor(params.ExchangeB)
	entryThreshold := feeA.Add(feeB).Mul(hundred).Add(params.ProfitTargetPct)

	report := Report{BaseAsset: params.BaseAsset, Bars: len(times)}
	var pos position

	for i, ts := range times {
		closeA, closeB := closesA[i], closesB[i]
		spreadPct := spreadPercent(closeA, closeB)

		if !pos.open {
			if spreadPct.GreaterThan(entryThreshold) {
				pos = openPosition(ts, closeA, closeB, spreadPct, params)
				b.logger.Debug("backtest entry",
					zap.Time("time", ts),
					zap.String("buy_on", pos.buyExchange),
					zap.String("sell_on", pos.sellExchange),
					zap.String("spread_pct", spreadPct.StringFixed(4)))
			}
			continue
		}

		pos.barsHeld++
		if spreadPct.LessThan(params.ExitThresholdPct) || pos.barsHeld >= params.MaxHoldBars {
			trade := closePosition(pos, ts, closeA, closeB, spreadPct, params, feeA, feeB)
			report.Trades = append(report.Trades, trade)
			report.TotalPnL = report.TotalPnL.Add(trade.PnL)
			pos = position{}
		}
	}

	return report, nil
}

func openPosition(ts time.Time, closeA, closeB, spreadPct decimal.Decimal, params Params) position {
	pos := position{
		open:        true,
		entryTime:   ts,
		entrySpread: spreadPct,
		entryA:      closeA,
		entryB:      closeB,
	}
	if closeA.LessThan(closeB) {
		pos.buyExchange, pos.sellExchange = params.ExchangeA, params.ExchangeB
	} else {
		pos.buyExchange, pos.sellExchange = params.ExchangeB, params.ExchangeA
	}

	return pos
}

// closePosition settles the long leg on the cheap venue and the short leg
// on the expensive one, charging taker fees on all four executions.
func closePosition(pos position, ts time.Time, closeA, closeB, spreadPct decimal.Decimal, params Params, feeA, feeB decimal.Decimal) Trade {
	entryBuy, entrySell := pos.entryA, pos.entryB
	exitBuy, exitSell := closeA, closeB
	buyFee, sellFee := feeA, feeB
	if pos.buyExchange == params.ExchangeB {
		entryBuy, entrySell = pos.entryB, pos.entryA
		exitBuy, exitSell = closeB, closeA
		buyFee, sellFee = feeB, feeA
	}

	units := params.Notional.Div(entryBuy)
	longPnL := units.Mul(exitBuy.Sub(entryBuy))
	shortPnL := units.Mul(entrySell.Sub(exitSell))
	fees := units.Mul(entryBuy.Add(exitBuy)).Mul(buyFee).
		Add(units.Mul(entrySell.Add(exitSell)).Mul(sellFee))

	return Trade{
		EntryTime:      pos.entryTime,
		ExitTime:       ts,
		BuyExchange:    pos.buyExchange,
		SellExchange:   pos.sellExchange,
		EntrySpreadPct: pos.entrySpread,
		ExitSpreadPct:  spreadPct,
		PnL:            longPnL.Add(shortPnL).Sub(fees),
	}
}

// spreadPercent is the absolute close-price gap relative to the cheaper
// venue, in percent.
func spreadPercent(closeA, closeB decimal.Decimal) decimal.Decimal {
	low, high := closeA, closeB
	if low.GreaterThan(high) {
		low, high = high, low
	}

	return high.Sub(low).Div(low).Mul(hundred)
}

func alignSeries(seriesA, seriesB []domain.Candle) ([]time.Time, []decimal.Decimal, []decimal.Decimal) {
	byTimeB := make(map[int64]decimal.Decimal, len(seriesB))
	for _, c := range seriesB {
		byTimeB[c.OpenTime.UnixMilli()] = c.Close
	}

	type row struct {
		ts     time.Time
		closeA decimal.Decimal
		closeB decimal.Decimal
	}
	var rows []row
	for _, c := range seriesA {
		if closeB, ok := byTimeB[c.OpenTime.UnixMilli()]; ok {
			rows = append(rows, row{ts: c.OpenTime, closeA: c.Close, closeB: closeB})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	times := make([]time.Time, len(rows))
	closesA := make([]decimal.Decimal, len(rows))
	closesB := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		times[i], closesA[i], closesB[i] = r.ts, r.closeA, r.closeB
	}

	return times, closesA, closesB
}
