package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"github.com/vadiminshakov/spreadscan/internal/services/evaluator"
	"go.uber.org/zap"
)

type fakeCollector struct {
	quotes map[string]domain.QuoteSet
}

func (f fakeCollector) Collect(_ context.Context, baseAsset string) domain.QuoteSet {
	return f.quotes[baseAsset]
}

type recordingSink struct {
	persisted  []domain.Opportunity
	persistErr error
	closed     bool
}

func (s *recordingSink) Persist(opp domain.Opportunity) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.persisted = append(s.persisted, opp)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func mustQuote(t *testing.T, exchange, bid, ask string) domain.Quote {
	t.Helper()
	quote, err := domain.NewQuote(exchange, "X", decimal.RequireFromString(bid), decimal.RequireFromString(ask))
	require.NoError(t, err)
	return quote
}

func newTestScanner(assets []string, collector QuoteCollector, sink Sink, interval time.Duration) *Scanner {
	eval := evaluator.New(domain.FeeSchedule{}, decimal.NewFromInt(10000))
	return New(assets, collector, eval, sink, interval, zap.NewNop())
}

// One asset with a profitable spread, one with a single usable quote: the
// skipped asset never aborts the cycle for the other.
func TestRunCycleIsolatesAssets(t *testing.T) {
	col := fakeCollector{quotes: map[string]domain.QuoteSet{
		"BTC": {
			"x": mustQuote(t, "x", "50000", "50010"),
			"y": mustQuote(t, "y", "50200", "50210"),
		},
		"SHIB": {
			"x": mustQuote(t, "x", "0.00001", "0.000011"),
		},
	}}
	sink := &recordingSink{}
	s := newTestScanner([]string{"BTC", "SHIB"}, col, sink, time.Second)

	result := s.RunCycle(context.Background(), 1)
	require.Len(t, result.Statuses, 2)
	require.Equal(t, domain.OutcomeOpportunity, result.Statuses[0].Outcome)
	require.Equal(t, domain.OutcomeInsufficientQuotes, result.Statuses[1].Outcome)
	require.Len(t, result.Opportunities(), 1)
}

func TestRunOncePersistsOpportunities(t *testing.T) {
	col := fakeCollector{quotes: map[string]domain.QuoteSet{
		"BTC": {
			"x": mustQuote(t, "x", "50000", "50010"),
			"y": mustQuote(t, "y", "50200", "50210"),
		},
	}}
	sink := &recordingSink{}
	s := newTestScanner([]string{"BTC"}, col, sink, time.Second)

	result := s.RunOnce(context.Background())
	require.Len(t, result.Opportunities(), 1)
	require.Len(t, sink.persisted, 1)
	require.Equal(t, "BTC", sink.persisted[0].BaseAsset)
	require.False(t, sink.closed, "one-shot scan leaves the sink open for the caller")
}

// Cancellation during the inter-cycle sleep: the next cycle never starts
// and the session reports only completed cycles.
func TestRunStopsDuringSleep(t *testing.T) {
	col := fakeCollector{quotes: map[string]domain.QuoteSet{}}
	sink := &recordingSink{}
	s := newTestScanner([]string{"BTC"}, col, sink, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.ScanSession, 1)
	runErr := make(chan error, 1)
	go func() {
		session, err := s.Run(ctx)
		runErr <- err
		done <- session
	}()

	// let three cycles complete (first runs immediately), then cancel
	// mid-sleep.
	require.Eventually(t, func() bool {
		return s.Session().CyclesCompleted >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	var session domain.ScanSession
	select {
	case session = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop after cancellation")
	}

	require.NoError(t, <-runErr)
	require.GreaterOrEqual(t, session.CyclesCompleted, uint64(3))
	require.True(t, sink.closed, "sink must be closed on shutdown")
	require.NotEmpty(t, session.ID)
}

// A failing sink is logged, never fatal: detection continues and counters
// keep advancing.
func TestRunSurvivesSinkFailure(t *testing.T) {
	col := fakeCollector{quotes: map[string]domain.QuoteSet{
		"BTC": {
			"x": mustQuote(t, "x", "50000", "50010"),
			"y": mustQuote(t, "y", "50200", "50210"),
		},
	}}
	sink := &recordingSink{persistErr: errors.New("disk full")}
	s := newTestScanner([]string{"BTC"}, col, sink, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.ScanSession, 1)
	go func() {
		session, _ := s.Run(ctx)
		done <- session
	}()

	require.Eventually(t, func() bool {
		return s.Session().CyclesCompleted >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	session := <-done
	require.GreaterOrEqual(t, session.CyclesCompleted, uint64(2))
	require.GreaterOrEqual(t, session.OpportunitiesFound, uint64(2), "opportunities are still counted when persistence fails")
}

func TestSessionSnapshotBeforeRun(t *testing.T) {
	s := newTestScanner(nil, fakeCollector{}, &recordingSink{}, time.Second)
	require.Equal(t, domain.ScanSession{}, s.Session())
}
