// Package collector fans out concurrent quote requests across exchanges
// and joins the results for one base asset.
package collector

import (
	"context"
	"time"

	"github.com/vadiminshakov/spreadscan/internal/domain"
	"github.com/vadiminshakov/spreadscan/internal/services/quoter"
	"github.com/vadiminshakov/spreadscan/internal/services/resolver"
	"github.com/vadiminshakov/spreadscan/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collector issues one concurrent quote request per exchange that maps the
// asset, each with its own timeout and failure domain.
type Collector struct {
	resolver *resolver.Resolver
	registry quoter.Registry
	timeout  time.Duration
	retrier  *retrier.Retrier
	logger   *zap.Logger
}

// New creates a Collector. timeout bounds every individual fetch, retries
// included.
func New(res *resolver.Resolver, registry quoter.Registry, timeout time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		resolver: res,
		registry: registry,
		timeout:  timeout,
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(200*time.Millisecond),
			retrier.WithMaxInterval(2*time.Second),
		),
		logger: logger,
	}
}

// Collect fetches quotes for one base asset from every exchange with a
// mapping. It waits for all fetches to finish, merges the successes and
// drops the failures; per-exchange errors are logged, never returned. The
// evaluator needs the full cross-exchange picture, so there is no
// early return on first success.
func (c *Collector) Collect(ctx context.Context, baseAsset string) domain.QuoteSet {
	mappings := c.resolver.MappingsFor(baseAsset)
	if len(mappings) == 0 {
		return domain.QuoteSet{}
	}

	results := make(chan domain.Quote, len(mappings))

	var group errgroup.Group
	for _, mapping := range mappings {
		source, ok := c.registry.Get(mapping.Exchange)
		if !ok {
			c.logger.Warn("no quote source for exchange, skipping",
				zap.String("exchange", mapping.Exchange),
				zap.String("asset", baseAsset))
			continue
		}

		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			quote, err := retrier.DoWithData(c.retrier, fetchCtx, func(ctx context.Context) (domain.Quote, error) {
				return fetchWithDeadline(ctx, source, mapping)
			})
			if err != nil {
				c.logger.Warn("quote fetch failed, exchange dropped for this cycle",
					zap.String("exchange", mapping.Exchange),
					zap.String("asset", baseAsset),
					zap.String("symbol", mapping.Symbol),
					zap.Error(err))
				return nil
			}

			results <- quote
			return nil
		})
	}

	// join barrier: every fetch completes, fails or times out before
	// evaluation.
	_ = group.Wait()
	close(results)

	quotes := make(domain.QuoteSet, len(mappings))
	for quote := range results {
		quotes[quote.Exchange] = quote
	}

	return quotes
}

type fetchResult struct {
	quote domain.Quote
	err   error
}

// fetchWithDeadline runs the fetch in its own goroutine and abandons it
// when ctx expires. Some exchange SDKs ignore the context entirely; without
// this guard one hung venue would hold the join barrier, and with it the
// whole cycle, past its deadline. The buffered channel lets an abandoned
// fetch finish and be collected without leaking.
func fetchWithDeadline(ctx context.Context, source quoter.Quoter, mapping domain.InstrumentMapping) (domain.Quote, error) {
	results := make(chan fetchResult, 1)
	go func() {
		quote, err := source.BestBidAsk(ctx, mapping)
		results <- fetchResult{quote: quote, err: err}
	}()

	select {
	case <-ctx.Done():
		return domain.Quote{}, ctx.Err()
	case result := <-results:
		return result.quote, result.err
	}
}
