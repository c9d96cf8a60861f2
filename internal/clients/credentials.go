package clients

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// Credentials returns the API key pair for an exchange from
// {EXCHANGE}_API_KEY / {EXCHANGE}_API_SECRET, loading a .env file once,
// best-effort. ok is false when either variable is missing; public
// endpoints are usable without credentials.
func Credentials(exchange string) (apiKey, apiSecret string, ok bool) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	prefix := strings.ToUpper(exchange)
	apiKey = os.Getenv(prefix + "_API_KEY")
	apiSecret = os.Getenv(prefix + "_API_SECRET")

	return apiKey, apiSecret, apiKey != "" && apiSecret != ""
}
