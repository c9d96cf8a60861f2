// Package evaluator computes the best cross-exchange buy/sell pairing for a
// quote set and decides whether a fee-adjusted simulated trade is
// profitable.
package evaluator

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Evaluator applies the fee schedule to quote sets and simulates a trade of
// fixed notional. It is stateless and safe for concurrent use.
type Evaluator struct {
	fees     domain.FeeSchedule
	notional decimal.Decimal
	now      func() time.Time
}

// New creates an Evaluator for the given fee schedule and simulated trade
// notional.
func New(fees domain.FeeSchedule, notional decimal.Decimal) *Evaluator {
	return &Evaluator{fees: fees, notional: notional, now: time.Now}
}

// Evaluate finds the highest bid and lowest ask across the quote set,
// simulates buying the full notional on the cheapest ask and selling on the
// highest bid with taker fees on both legs, and reports an opportunity iff
// the net profit is positive. The raw bid > ask check is never the gate:
// fees can erase an apparently positive spread, and fee asymmetry can make
// a narrow one worthwhile.
//
// Exchanges are iterated in sorted name order with strict comparisons, so
// ties deterministically resolve to the lexicographically first exchange.
func (e *Evaluator) Evaluate(baseAsset string, quotes domain.QuoteSet, cycle uint64) domain.AssetStatus {
	if len(quotes) < 2 {
		return domain.AssetStatus{
			BaseAsset: baseAsset,
			Outcome:   domain.OutcomeInsufficientQuotes,
			Quotes:    len(quotes),
		}
	}

	var sellExchange, buyExchange string
	var bestBid, bestAsk decimal.Decimal
	for _, exchange := range quotes.Exchanges() {
		quote := quotes[exchange]
		if sellExchange == "" || quote.Bid.GreaterThan(bestBid) {
			sellExchange, bestBid = exchange, quote.Bid
		}
		if buyExchange == "" || quote.Ask.LessThan(bestAsk) {
			buyExchange, bestAsk = exchange, quote.Ask
		}
	}

	buyFee := e.fees.FeeFor(buyExchange)
	sellFee := e.fees.FeeFor(sellExchange)

	one := decimal.NewFromInt(1)
	effectiveBuyPrice := bestAsk.Mul(one.Add(buyFee))
	units := e.notional.Div(effectiveBuyPrice)
	grossSellRevenue := units.Mul(bestBid)
	sellFeeAmount := grossSellRevenue.Mul(sellFee)
	netSellRevenue := grossSellRevenue.Sub(sellFeeAmount)
	buyFeeAmount := units.Mul(bestAsk).Mul(buyFee)
	netProfit := netSellRevenue.Sub(units.Mul(effectiveBuyPrice))

	grossSpreadPct := bestBid.Sub(bestAsk).Div(bestAsk).Mul(hundred)
	breakEvenSpreadPct := buyFee.Add(sellFee).Mul(hundred)

	if !netProfit.IsPositive() {
		return domain.AssetStatus{
			BaseAsset:          baseAsset,
			Outcome:            domain.OutcomeNoSpread,
			Quotes:             len(quotes),
			GrossSpreadPct:     grossSpreadPct,
			BreakEvenSpreadPct: breakEvenSpreadPct,
		}
	}

	opportunity := &domain.Opportunity{
		Timestamp:          e.now().UTC(),
		CycleNumber:        cycle,
		BaseAsset:          baseAsset,
		BuyExchange:        buyExchange,
		SellExchange:       sellExchange,
		BuyPrice:           bestAsk,
		SellPrice:          bestBid,
		BuyFeeRate:         buyFee,
		SellFeeRate:        sellFee,
		GrossSpreadPct:     grossSpreadPct,
		BreakEvenSpreadPct: breakEvenSpreadPct,
		Notional:           e.notional,
		NetProfit:          netProfit,
		NetProfitPct:       netProfit.Div(e.notional).Mul(hundred),
		TotalFees:          buyFeeAmount.Add(sellFeeAmount),
	}

	return domain.AssetStatus{
		BaseAsset:          baseAsset,
		Outcome:            domain.OutcomeOpportunity,
		Quotes:             len(quotes),
		GrossSpreadPct:     grossSpreadPct,
		BreakEvenSpreadPct: breakEvenSpreadPct,
		Opportunity:        opportunity,
	}
}
