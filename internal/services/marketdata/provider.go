// Package marketdata pulls OHLCV history from the exchanges into the
// candle store.
package marketdata

import (
	"context"

	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// KlineProvider fetches historical candlestick data for a mapped
// instrument.
type KlineProvider interface {
	// GetKlines fetches up to limit bars at the given interval
	// (standard format, e.g. "1m", "5m", "1h").
	GetKlines(ctx context.Context, mapping domain.InstrumentMapping, interval string, limit int) ([]domain.Candle, error)
}
