package marketdata

import (
	"context"
	"time"

	"github.com/vadiminshakov/spreadscan/internal/domain"
	"github.com/vadiminshakov/spreadscan/internal/services/resolver"
	"go.uber.org/zap"
)

const (
	// feedInterval is the bar size the reference deployment stores.
	feedInterval = "1m"
	// feedLimit is the number of recent bars pulled per (exchange, asset).
	feedLimit = 500
)

// CandleStore is the persistence the feed writes into.
type CandleStore interface {
	Save(ctx context.Context, batch []domain.Candle) error
	LastOpenTime(ctx context.Context, exchange, symbol string) (lastOpen time.Time, ok bool, err error)
}

// Feed pulls recent candles for every (exchange, asset) mapping and upserts
// them into the store, resuming after the last stored bar. Per-exchange
// failures are logged and skipped; one venue's outage never blocks the
// others.
type Feed struct {
	resolver  *resolver.Resolver
	providers map[string]KlineProvider
	store     CandleStore
	assets    []string
	logger    *zap.Logger
}

// NewFeed creates a Feed over the given providers, keyed by exchange name.
func NewFeed(res *resolver.Resolver, providers map[string]KlineProvider, store CandleStore, assets []string, logger *zap.Logger) *Feed {
	return &Feed{
		resolver:  res,
		providers: providers,
		store:     store,
		assets:    assets,
		logger:    logger,
	}
}

// Sync fetches and stores the most recent candles for every mapped
// (exchange, asset) pair. It returns the number of new bars stored.
func (f *Feed) Sync(ctx context.Context) (int, error) {
	var stored int

	for _, asset := range f.assets {
		for _, mapping := range f.resolver.MappingsFor(asset) {
			provider, ok := f.providers[mapping.Exchange]
			if !ok {
				f.logger.Warn("no kline provider for exchange, skipping",
					zap.String("exchange", mapping.Exchange),
					zap.String("asset", asset))
				continue
			}

			n, err := f.syncOne(ctx, provider, mapping)
			if err != nil {
				f.logger.Error("failed to sync candles",
					zap.String("exchange", mapping.Exchange),
					zap.String("asset", asset),
					zap.String("symbol", mapping.Symbol),
					zap.Error(err))
				continue
			}

			stored += n
			f.logger.Info("candles synced",
				zap.String("exchange", mapping.Exchange),
				zap.String("symbol", mapping.Symbol),
				zap.Int("new_bars", n))
		}

		if err := ctx.Err(); err != nil {
			return stored, err
		}
	}

	return stored, nil
}

func (f *Feed) syncOne(ctx context.Context, provider KlineProvider, mapping domain.InstrumentMapping) (int, error) {
	lastOpen, hasLast, err := f.store.LastOpenTime(ctx, mapping.Exchange, mapping.Symbol)
	if err != nil {
		return 0, err
	}

	candles, err := provider.GetKlines(ctx, mapping, feedInterval, feedLimit)
	if err != nil {
		return 0, err
	}

	// keep only bars at or after the last stored one; the newest stored bar
	// is re-upserted because it may have been fetched while still open.
	fresh := candles
	if hasLast {
		fresh = fresh[:0]
		for _, c := range candles {
			if !c.OpenTime.Before(lastOpen) {
				fresh = append(fresh, c)
			}
		}
	}

	if err := f.store.Save(ctx, fresh); err != nil {
		return 0, err
	}

	return len(fresh), nil
}
