package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is an immutable record of one profitable cross-exchange
// pairing. It is handed to the opportunity sink exactly once. The JSON field
// names are the wire format consumed by downstream analysis tools and must
// stay stable.
type Opportunity struct {
	Timestamp          time.Time       `json:"timestamp"`
	CycleNumber        uint64          `json:"cycle_number"`
	BaseAsset          string          `json:"base_asset"`
	BuyExchange        string          `json:"buy_exchange"`
	SellExchange       string          `json:"sell_exchange"`
	BuyPrice           decimal.Decimal `json:"buy_price"`
	SellPrice          decimal.Decimal `json:"sell_price"`
	BuyFeeRate         decimal.Decimal `json:"buy_fee_rate"`
	SellFeeRate        decimal.Decimal `json:"sell_fee_rate"`
	GrossSpreadPct     decimal.Decimal `json:"gross_spread_pct"`
	BreakEvenSpreadPct decimal.Decimal `json:"break_even_spread_pct"`
	Notional           decimal.Decimal `json:"simulated_trade_notional"`
	NetProfit          decimal.Decimal `json:"net_profit_amount"`
	NetProfitPct       decimal.Decimal `json:"net_profit_pct"`
	TotalFees          decimal.Decimal `json:"total_fees_amount"`
}
