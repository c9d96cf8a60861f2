package domain

// MarketType tells a quote source which order book an instrument trades on.
type MarketType string

const (
	// MarketTypeSpot spot order book.
	MarketTypeSpot MarketType = "spot"
	// MarketTypeFutures perpetual futures order book.
	MarketTypeFutures MarketType = "futures"
)

// String returns the string representation.
func (m MarketType) String() string {
	return string(m)
}

// IsValid checks if the MarketType value is valid.
func (m MarketType) IsValid() bool {
	return m == MarketTypeSpot || m == MarketTypeFutures
}
