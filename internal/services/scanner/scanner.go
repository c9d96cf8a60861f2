// Package scanner drives scan cycles: one pass over all configured base
// assets, and the continuous loop that repeats cycles until cancelled.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"go.uber.org/zap"
)

// QuoteCollector joins concurrent per-exchange quotes for one base asset.
type QuoteCollector interface {
	Collect(ctx context.Context, baseAsset string) domain.QuoteSet
}

// Evaluator decides whether a quote set contains a profitable pairing.
type Evaluator interface {
	Evaluate(baseAsset string, quotes domain.QuoteSet, cycle uint64) domain.AssetStatus
}

// Sink is the durable record of detected opportunities. A Persist failure
// must never stop detection.
type Sink interface {
	Persist(opp domain.Opportunity) error
	Close() error
}

// Scanner runs scan cycles over the configured base assets. The session
// counters are mutated only by the loop goroutine; observers read a
// guarded snapshot.
type Scanner struct {
	assets    []string
	collector QuoteCollector
	evaluator Evaluator
	sink      Sink
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.RWMutex
	session domain.ScanSession
}

// New creates a Scanner.
func New(assets []string, collector QuoteCollector, evaluator Evaluator, sink Sink, interval time.Duration, logger *zap.Logger) *Scanner {
	return &Scanner{
		assets:    assets,
		collector: collector,
		evaluator: evaluator,
		sink:      sink,
		interval:  interval,
		logger:    logger,
	}
}

// RunCycle executes one full pass over all base assets. One asset's failure
// path never aborts the cycle for the others.
func (s *Scanner) RunCycle(ctx context.Context, cycle uint64) domain.CycleResult {
	result := domain.CycleResult{Cycle: cycle, StartedAt: time.Now().UTC()}

	for _, asset := range s.assets {
		quotes := s.collector.Collect(ctx, asset)
		status := s.evaluator.Evaluate(asset, quotes, cycle)
		result.Statuses = append(result.Statuses, status)
		s.logStatus(cycle, status)
	}

	return result
}

// RunOnce executes a single cycle, persists its opportunities through the
// sink and returns the result. Used by the one-shot scan action; the sink
// stays open for the caller to close.
func (s *Scanner) RunOnce(ctx context.Context) domain.CycleResult {
	result := s.RunCycle(ctx, 1)
	s.persist(result.Opportunities())

	return result
}

// Run executes cycles at the configured interval until ctx is cancelled.
// An in-flight cycle always completes; cancellation is honored at cycle
// boundaries and during the inter-cycle sleep. On shutdown the sink is
// closed, the final summary is logged and the finished session returned.
func (s *Scanner) Run(ctx context.Context) (domain.ScanSession, error) {
	session := domain.ScanSession{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	s.storeSnapshot(session)

	s.logger.Info("starting continuous scan",
		zap.String("session", session.ID),
		zap.Strings("assets", s.assets),
		zap.Duration("interval", s.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-timer.C:
		}

		cycle := session.CyclesCompleted + 1
		result := s.RunCycle(ctx, cycle)
		opportunities := result.Opportunities()
		s.persist(opportunities)

		session.CyclesCompleted = cycle
		session.OpportunitiesFound += uint64(len(opportunities))
		s.storeSnapshot(session)

		s.logger.Info("cycle finished",
			zap.Uint64("cycle", cycle),
			zap.Int("opportunities", len(opportunities)),
			zap.Duration("took", time.Since(result.StartedAt)))

		timer.Reset(s.interval)
	}

	if err := s.sink.Close(); err != nil {
		s.logger.Error("failed to close opportunity sink", zap.Error(err))
	}

	s.logger.Info("scan session finished",
		zap.String("session", session.ID),
		zap.Uint64("cycles_completed", session.CyclesCompleted),
		zap.Uint64("opportunities_found", session.OpportunitiesFound))

	return session, nil
}

// Session returns a snapshot of the current session counters.
func (s *Scanner) Session() domain.ScanSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session
}

func (s *Scanner) storeSnapshot(session domain.ScanSession) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}

func (s *Scanner) persist(opportunities []domain.Opportunity) {
	for _, opp := range opportunities {
		if err := s.sink.Persist(opp); err != nil {
			// detection keeps running even when durability is unavailable.
			s.logger.Error("failed to persist opportunity",
				zap.String("asset", opp.BaseAsset),
				zap.Uint64("cycle", opp.CycleNumber),
				zap.Error(err))
		}
	}
}

func (s *Scanner) logStatus(cycle uint64, status domain.AssetStatus) {
	switch status.Outcome {
	case domain.OutcomeOpportunity:
		opp := status.Opportunity
		s.logger.Info("arbitrage opportunity detected",
			zap.Uint64("cycle", cycle),
			zap.String("asset", status.BaseAsset),
			zap.String("buy_on", opp.BuyExchange),
			zap.String("sell_on", opp.SellExchange),
			zap.String("buy_price", opp.BuyPrice.String()),
			zap.String("sell_price", opp.SellPrice.String()),
			zap.String("net_profit", opp.NetProfit.StringFixed(2)),
			zap.String("net_profit_pct", opp.NetProfitPct.StringFixed(4)))
	case domain.OutcomeNoSpread:
		s.logger.Info("no profitable spread",
			zap.Uint64("cycle", cycle),
			zap.String("asset", status.BaseAsset),
			zap.Int("quotes", status.Quotes),
			zap.String("gross_spread_pct", status.GrossSpreadPct.StringFixed(4)),
			zap.String("required_spread_pct", status.BreakEvenSpreadPct.StringFixed(4)))
	case domain.OutcomeInsufficientQuotes:
		s.logger.Warn("asset skipped, need at least two usable quotes",
			zap.Uint64("cycle", cycle),
			zap.String("asset", status.BaseAsset),
			zap.Int("quotes", status.Quotes))
	}
}
