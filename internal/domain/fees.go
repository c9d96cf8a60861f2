package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// FeeSchedule maps an exchange name to its taker fee rate as a fraction,
// e.g. 0.0006 for 0.06%.
type FeeSchedule map[string]decimal.Decimal

// FeeFor returns the taker fee for the exchange, or zero when the exchange
// is not listed.
func (f FeeSchedule) FeeFor(exchange string) decimal.Decimal {
	if fee, ok := f[exchange]; ok {
		return fee
	}

	return decimal.Zero
}

// Validate checks that every rate is within [0, 1).
func (f FeeSchedule) Validate() error {
	one := decimal.NewFromInt(1)
	for exchange, fee := range f {
		if fee.IsNegative() || fee.GreaterThanOrEqual(one) {
			return errors.Errorf("taker fee for %s out of range [0, 1): %s", exchange, fee)
		}
	}

	return nil
}
