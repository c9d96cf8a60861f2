package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetOutcome classifies the result of evaluating one base asset in a cycle.
type AssetOutcome string

const (
	// OutcomeOpportunity a profitable pairing was found.
	OutcomeOpportunity AssetOutcome = "opportunity"
	// OutcomeNoSpread quotes were sufficient but no pairing cleared the fees.
	OutcomeNoSpread AssetOutcome = "no_spread"
	// OutcomeInsufficientQuotes fewer than two exchanges produced usable quotes.
	OutcomeInsufficientQuotes AssetOutcome = "insufficient_quotes"
)

// AssetStatus is the structured per-asset result of one scan cycle.
type AssetStatus struct {
	BaseAsset string
	Outcome   AssetOutcome
	// Quotes is the number of exchanges that produced a usable quote.
	Quotes int
	// GrossSpreadPct is the best observed spread between the chosen venues,
	// set whenever at least two quotes were available.
	GrossSpreadPct decimal.Decimal
	// BreakEvenSpreadPct is the spread required to cover both venues' fees.
	BreakEvenSpreadPct decimal.Decimal
	// Opportunity is set only when Outcome is OutcomeOpportunity.
	Opportunity *Opportunity
}

// CycleResult aggregates the per-asset statuses of one full scan cycle.
type CycleResult struct {
	Cycle     uint64
	StartedAt time.Time
	Statuses  []AssetStatus
}

// Opportunities returns the opportunities found in the cycle.
func (c CycleResult) Opportunities() []Opportunity {
	var opps []Opportunity
	for _, status := range c.Statuses {
		if status.Opportunity != nil {
			opps = append(opps, *status.Opportunity)
		}
	}

	return opps
}
