package domain

import "github.com/pkg/errors"

var (
	// ErrUnsupported the exchange lacks the requested capability.
	ErrUnsupported = errors.New("capability unsupported")
	// ErrMalformedQuote the venue returned a snapshot missing bid or ask.
	ErrMalformedQuote = errors.New("malformed quote")
	// ErrRateLimited the venue throttled the request.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoMapping the exchange has no instrument mapping for the base asset.
	ErrNoMapping = errors.New("no instrument mapping")
	// ErrInsufficientQuotes fewer than two exchanges produced usable quotes.
	ErrInsufficientQuotes = errors.New("insufficient quotes")
)
