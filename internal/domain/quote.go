// Package domain defines core data structures used throughout the arbitrage scanner.
package domain

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Quote is one exchange's best bid/ask snapshot for one instrument.
// Quotes are produced fresh each scan cycle and never mutated.
type Quote struct {
	// Exchange that produced the snapshot.
	Exchange string
	// Symbol is the exchange-specific instrument symbol.
	Symbol string
	// Bid is the highest price a buyer on the venue will pay.
	Bid decimal.Decimal
	// Ask is the lowest price a seller on the venue will accept.
	Ask decimal.Decimal
}

// NewQuote validates bid and ask and constructs a Quote. A snapshot missing
// either side of the book is a fetch failure, not a usable quote.
func NewQuote(exchange, symbol string, bid, ask decimal.Decimal) (Quote, error) {
	if !bid.IsPositive() || !ask.IsPositive() {
		return Quote{}, errors.Wrapf(ErrMalformedQuote, "%s %s: bid=%s ask=%s", exchange, symbol, bid, ask)
	}

	return Quote{Exchange: exchange, Symbol: symbol, Bid: bid, Ask: ask}, nil
}

// QuoteSet is the join of successful quotes for one base asset in one cycle,
// keyed by exchange name. Failed exchanges are simply absent.
type QuoteSet map[string]Quote

// Exchanges returns the exchange names present in the set in sorted order.
func (s QuoteSet) Exchanges() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
