package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar for an instrument on one exchange.
type Candle struct {
	Exchange string
	Symbol   string
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}
