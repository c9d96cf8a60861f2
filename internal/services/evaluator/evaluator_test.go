package evaluator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

func quote(exchange string, bid, ask string) domain.Quote {
	return domain.Quote{
		Exchange: exchange,
		Symbol:   "BTCUSDT",
		Bid:      decimal.RequireFromString(bid),
		Ask:      decimal.RequireFromString(ask),
	}
}

func fees(rates map[string]string) domain.FeeSchedule {
	schedule := make(domain.FeeSchedule, len(rates))
	for exchange, rate := range rates {
		schedule[exchange] = decimal.RequireFromString(rate)
	}
	return schedule
}

func TestEvaluateRejectsInsufficientQuotes(t *testing.T) {
	eval := New(domain.FeeSchedule{}, decimal.NewFromInt(10000))

	for _, quotes := range []domain.QuoteSet{
		{},
		{"binance": quote("binance", "50000", "50010")},
	} {
		status := eval.Evaluate("BTC", quotes, 1)
		require.Equal(t, domain.OutcomeInsufficientQuotes, status.Outcome)
		require.Nil(t, status.Opportunity)
		require.Equal(t, len(quotes), status.Quotes)
	}
}

// Low fees: X asks 50010, Y bids 50200, spread clears both taker fees.
func TestEvaluateFindsOpportunity(t *testing.T) {
	eval := New(fees(map[string]string{"x": "0.0004", "y": "0.0006"}), decimal.NewFromInt(10000))

	quotes := domain.QuoteSet{
		"x": quote("x", "50000", "50010"),
		"y": quote("y", "50200", "50210"),
	}

	status := eval.Evaluate("BTC", quotes, 3)
	require.Equal(t, domain.OutcomeOpportunity, status.Outcome)
	require.NotNil(t, status.Opportunity)

	opp := status.Opportunity
	assert.Equal(t, "x", opp.BuyExchange)
	assert.Equal(t, "y", opp.SellExchange)
	assert.True(t, opp.BuyPrice.Equal(decimal.RequireFromString("50010")))
	assert.True(t, opp.SellPrice.Equal(decimal.RequireFromString("50200")))
	assert.Equal(t, uint64(3), opp.CycleNumber)
	assert.Equal(t, "BTC", opp.BaseAsset)
	assert.True(t, opp.NetProfit.IsPositive(), "net profit should be positive, got %s", opp.NetProfit)
	assert.True(t, opp.NetProfitPct.IsPositive())
	assert.True(t, opp.TotalFees.IsPositive())
	// break-even spread is (buy_fee + sell_fee) * 100
	assert.True(t, opp.BreakEvenSpreadPct.Equal(decimal.RequireFromString("0.1")))

	// cross-check the simulation chain by hand:
	// effective buy = 50010 * 1.0004, units = 10000 / effective buy,
	// net revenue = units * 50200 * (1 - 0.0006), profit = revenue - 10000.
	effectiveBuy := decimal.RequireFromString("50010").Mul(decimal.RequireFromString("1.0004"))
	units := decimal.NewFromInt(10000).Div(effectiveBuy)
	revenue := units.Mul(decimal.RequireFromString("50200")).Mul(decimal.RequireFromString("0.9994"))
	wantProfit := revenue.Sub(decimal.NewFromInt(10000))
	assert.True(t, opp.NetProfit.Sub(wantProfit).Abs().LessThan(decimal.RequireFromString("0.000001")),
		"want %s got %s", wantProfit, opp.NetProfit)
}

// Same quotes with 1% fees on both legs: the gross spread is still positive
// but fees erase it, so no opportunity may be reported.
func TestEvaluateFeesEraseGrossSpread(t *testing.T) {
	eval := New(fees(map[string]string{"x": "0.01", "y": "0.01"}), decimal.NewFromInt(10000))

	quotes := domain.QuoteSet{
		"x": quote("x", "50000", "50010"),
		"y": quote("y", "50200", "50210"),
	}

	status := eval.Evaluate("BTC", quotes, 1)
	require.Equal(t, domain.OutcomeNoSpread, status.Outcome)
	require.Nil(t, status.Opportunity)

	// the near-miss numbers stay observable for logging
	assert.True(t, status.GrossSpreadPct.IsPositive())
	assert.True(t, status.BreakEvenSpreadPct.Equal(decimal.NewFromInt(2)))
	assert.True(t, status.GrossSpreadPct.LessThan(status.BreakEvenSpreadPct))
}

func TestEvaluateUnlistedExchangeGetsZeroFee(t *testing.T) {
	eval := New(domain.FeeSchedule{}, decimal.NewFromInt(10000))

	quotes := domain.QuoteSet{
		"x": quote("x", "50000", "50010"),
		"y": quote("y", "50200", "50210"),
	}

	status := eval.Evaluate("BTC", quotes, 1)
	require.Equal(t, domain.OutcomeOpportunity, status.Outcome)
	require.True(t, status.Opportunity.BuyFeeRate.IsZero())
	require.True(t, status.Opportunity.SellFeeRate.IsZero())
	require.True(t, status.Opportunity.TotalFees.IsZero())
}

// Equal books on every venue must deterministically pick the
// lexicographically first exchange for both legs.
func TestEvaluateTieBreakIsDeterministic(t *testing.T) {
	eval := New(domain.FeeSchedule{}, decimal.NewFromInt(10000))

	quotes := domain.QuoteSet{
		"charlie": quote("charlie", "100", "99"),
		"alpha":   quote("alpha", "100", "99"),
		"bravo":   quote("bravo", "100", "99"),
	}

	for range 10 {
		status := eval.Evaluate("BTC", quotes, 1)
		require.Equal(t, domain.OutcomeOpportunity, status.Outcome)
		require.Equal(t, "alpha", status.Opportunity.BuyExchange)
		require.Equal(t, "alpha", status.Opportunity.SellExchange)
	}
}

func TestEvaluateZeroGrossSpreadIsNoOpportunity(t *testing.T) {
	eval := New(domain.FeeSchedule{}, decimal.NewFromInt(10000))

	// best bid equals best ask: zero net profit must not qualify.
	quotes := domain.QuoteSet{
		"x": quote("x", "100", "100"),
		"y": quote("y", "100", "100"),
	}

	status := eval.Evaluate("BTC", quotes, 1)
	require.Equal(t, domain.OutcomeNoSpread, status.Outcome)
}
