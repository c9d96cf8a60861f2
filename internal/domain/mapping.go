package domain

// InstrumentMapping binds a base asset to the exact tradable symbol and
// market type on one exchange. Mappings are owned by configuration and
// read-only at run time; an exchange may have no mapping for an asset.
type InstrumentMapping struct {
	// Exchange name, e.g. "binance".
	Exchange string
	// BaseAsset is the abstract asset identifier, e.g. "BTC".
	BaseAsset string
	// Symbol is the venue's own instrument identifier, e.g. "BTCUSDT" on
	// Binance futures or "btcusd" on Bitstamp spot.
	Symbol string
	// Market selects the order book the symbol trades on.
	Market MarketType
}
