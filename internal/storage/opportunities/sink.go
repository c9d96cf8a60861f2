// Package opportunities persists detected arbitrage opportunities: an
// append-only JSONL log for downstream tools and a WAL store for durable
// replay.
package opportunities

import (
	"errors"

	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// Sink is an append-only destination for opportunity records.
type Sink interface {
	Persist(opp domain.Opportunity) error
	Close() error
}

// Multi fans every record out to several sinks. One sink's failure does not
// prevent writes to the others.
type Multi []Sink

// NewMulti combines sinks into one.
func NewMulti(sinks ...Sink) Multi {
	return Multi(sinks)
}

// Persist writes the record to all sinks, joining any errors.
func (m Multi) Persist(opp domain.Opportunity) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Persist(opp); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes all sinks, joining any errors.
func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
