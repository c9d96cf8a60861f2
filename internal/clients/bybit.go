package clients

import (
	"net/http"
	"time"

	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient returns a Bybit V5 client whose HTTP transport is bounded
// by timeout. The SDK takes no context, so without the transport timeout a
// blackholed connection would hang the call forever. Auth is attached only
// when both credentials are present; public market endpoints do not
// require it.
func NewBybitClient(apiKey, apiSecret string, timeout time.Duration) *bybit.Client {
	client := bybit.NewClient().WithHTTPClient(&http.Client{Timeout: timeout})
	if apiKey != "" && apiSecret != "" {
		client = client.WithAuth(apiKey, apiSecret)
	}

	return client
}
