package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// The opportunity log is parsed by downstream tools, so the JSON key set is a
// contract: renaming or dropping a field breaks consumers.
func TestOpportunityWireFormat(t *testing.T) {
	opp := Opportunity{
		Timestamp:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CycleNumber:        7,
		BaseAsset:          "BTC",
		BuyExchange:        "binance",
		SellExchange:       "bybit",
		BuyPrice:           decimal.NewFromInt(50010),
		SellPrice:          decimal.NewFromInt(50200),
		BuyFeeRate:         decimal.NewFromFloat(0.0004),
		SellFeeRate:        decimal.NewFromFloat(0.0006),
		GrossSpreadPct:     decimal.NewFromFloat(0.38),
		BreakEvenSpreadPct: decimal.NewFromFloat(0.1),
		Notional:           decimal.NewFromInt(10000),
		NetProfit:          decimal.NewFromFloat(27.95),
		NetProfitPct:       decimal.NewFromFloat(0.2795),
		TotalFees:          decimal.NewFromFloat(10.02),
	}

	raw, err := json.Marshal(opp)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	wantKeys := []string{
		"timestamp",
		"cycle_number",
		"base_asset",
		"buy_exchange",
		"sell_exchange",
		"buy_price",
		"sell_price",
		"buy_fee_rate",
		"sell_fee_rate",
		"gross_spread_pct",
		"break_even_spread_pct",
		"simulated_trade_notional",
		"net_profit_amount",
		"net_profit_pct",
		"total_fees_amount",
	}
	require.Len(t, fields, len(wantKeys))
	for _, key := range wantKeys {
		require.Contains(t, fields, key)
	}

	var restored Opportunity
	require.NoError(t, json.Unmarshal(raw, &restored))
	require.True(t, restored.Timestamp.Equal(opp.Timestamp))
	require.Equal(t, opp.CycleNumber, restored.CycleNumber)
	require.Equal(t, opp.BuyExchange, restored.BuyExchange)
	require.True(t, restored.NetProfit.Equal(opp.NetProfit))
	require.True(t, restored.GrossSpreadPct.Equal(opp.GrossSpreadPct))
}
