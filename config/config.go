// Package config loads and validates the scanner configuration from a YAML
// file or from compiled defaults mirroring the reference deployment.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config is the fully parsed and validated scanner configuration.
type Config struct {
	// Exchanges lists the venues to poll, in configuration order.
	Exchanges []string
	// BaseAssets lists the assets to scan each cycle.
	BaseAssets []string
	// Mappings binds (exchange, asset) to the venue's instrument symbol and
	// market type. Read-only after Get returns.
	Mappings []domain.InstrumentMapping
	// Fees holds per-exchange taker fee rates.
	Fees domain.FeeSchedule
	// Notional is the simulated trade size in quote currency.
	Notional decimal.Decimal
	// ScanInterval is the pause between scan cycles.
	ScanInterval time.Duration
	// RequestTimeout bounds every individual quote fetch.
	RequestTimeout time.Duration

	// OpportunitiesFile is the JSONL log consumed by downstream tools.
	OpportunitiesFile string
	// WALDir is the directory of the durable opportunity WAL.
	WALDir string
	// CandlesDB is the sqlite database path for the market data feed.
	CandlesDB string
	// SessionLog, when set, enables the rotated JSON session log file.
	SessionLog string

	Dashboard DashboardConfig
}

// DashboardConfig controls the optional HTTP status server.
type DashboardConfig struct {
	Enabled bool
	Addr    string
	// Domains enables automatic TLS via ACME when non-empty.
	Domains   []string
	CertCache string
}

type configTmp struct {
	Exchanges      []string                     `yaml:"exchanges"`
	BaseAssets     []string                     `yaml:"base_assets"`
	Instruments    map[string]map[string]mapTmp `yaml:"instruments"`
	Fees           map[string]string            `yaml:"fees"`
	Notional       string                       `yaml:"notional"`
	ScanInterval   time.Duration                `yaml:"scan_interval"`
	RequestTimeout time.Duration                `yaml:"request_timeout"`
	Opportunities  string                       `yaml:"opportunities_file,omitempty"`
	WALDir         string                       `yaml:"wal_dir,omitempty"`
	CandlesDB      string                       `yaml:"candles_db,omitempty"`
	SessionLog     string                       `yaml:"session_log,omitempty"`
	Dashboard      dashboardTmp                 `yaml:"dashboard,omitempty"`
}

type mapTmp struct {
	Symbol string `yaml:"symbol"`
	Market string `yaml:"market"`
}

type dashboardTmp struct {
	Enabled   bool     `yaml:"enabled"`
	Addr      string   `yaml:"addr,omitempty"`
	Domains   []string `yaml:"domains,omitempty"`
	CertCache string   `yaml:"cert_cache,omitempty"`
}

// Get parses flags and returns the configuration. Without --config the
// compiled defaults are used; --interval, --notional and --assets override
// individual fields either way.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	interval := flag.Duration("interval", 0, "scan interval override, example: 15s")
	notional := flag.String("notional", "", "simulated trade notional override, example: 10000")
	assets := flag.String("assets", "", "comma-separated base assets override, example: BTC,ETH")
	flag.Parse()

	cfg := Default()
	if *configPath != "" {
		var err error
		cfg, err = fromYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	}

	if *interval > 0 {
		cfg.ScanInterval = *interval
	}
	if *notional != "" {
		n, err := decimal.NewFromString(*notional)
		if err != nil {
			return Config{}, fmt.Errorf("invalid --notional provided, --notional=%s", *notional)
		}
		cfg.Notional = n
	}
	if *assets != "" {
		cfg.BaseAssets = nil
		for _, a := range strings.Split(*assets, ",") {
			if a = strings.TrimSpace(a); a != "" {
				cfg.BaseAssets = append(cfg.BaseAssets, strings.ToUpper(a))
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the compiled configuration mirroring the reference
// deployment: Binance and Bybit quote USDT perpetuals, Bitstamp quotes USD
// spot pairs.
func Default() Config {
	exchanges := []string{"binance", "bybit", "bitstamp"}
	assets := []string{"BTC", "ETH", "SOL", "XRP"}

	var mappings []domain.InstrumentMapping
	for _, asset := range assets {
		mappings = append(mappings,
			domain.InstrumentMapping{Exchange: "binance", BaseAsset: asset, Symbol: asset + "USDT", Market: domain.MarketTypeFutures},
			domain.InstrumentMapping{Exchange: "bybit", BaseAsset: asset, Symbol: asset + "USDT", Market: domain.MarketTypeFutures},
			domain.InstrumentMapping{Exchange: "bitstamp", BaseAsset: asset, Symbol: strings.ToLower(asset) + "usd", Market: domain.MarketTypeSpot},
		)
	}

	return Config{
		Exchanges:  exchanges,
		BaseAssets: assets,
		Mappings:   mappings,
		Fees: domain.FeeSchedule{
			"binance":  decimal.RequireFromString("0.0004"),
			"bybit":    decimal.RequireFromString("0.0006"),
			"bitstamp": decimal.RequireFromString("0.004"),
		},
		Notional:          decimal.NewFromInt(10000),
		ScanInterval:      15 * time.Second,
		RequestTimeout:    10 * time.Second,
		OpportunitiesFile: "opportunities.log",
		WALDir:            "./wal/opportunities",
		CandlesDB:         "market_data.db",
		Dashboard:         DashboardConfig{Addr: ":8080"},
	}
}

func fromYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	def := Default()
	cfg := Config{
		Exchanges:         tmp.Exchanges,
		BaseAssets:        tmp.BaseAssets,
		ScanInterval:      tmp.ScanInterval,
		RequestTimeout:    tmp.RequestTimeout,
		OpportunitiesFile: tmp.Opportunities,
		WALDir:            tmp.WALDir,
		CandlesDB:         tmp.CandlesDB,
		SessionLog:        tmp.SessionLog,
		Dashboard: DashboardConfig{
			Enabled:   tmp.Dashboard.Enabled,
			Addr:      tmp.Dashboard.Addr,
			Domains:   tmp.Dashboard.Domains,
			CertCache: tmp.Dashboard.CertCache,
		},
	}

	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = def.ScanInterval
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.OpportunitiesFile == "" {
		cfg.OpportunitiesFile = def.OpportunitiesFile
	}
	if cfg.WALDir == "" {
		cfg.WALDir = def.WALDir
	}
	if cfg.CandlesDB == "" {
		cfg.CandlesDB = def.CandlesDB
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = def.Dashboard.Addr
	}

	for exchange, byAsset := range tmp.Instruments {
		for asset, m := range byAsset {
			cfg.Mappings = append(cfg.Mappings, domain.InstrumentMapping{
				Exchange:  exchange,
				BaseAsset: asset,
				Symbol:    m.Symbol,
				Market:    domain.MarketType(m.Market),
			})
		}
	}

	cfg.Fees = make(domain.FeeSchedule, len(tmp.Fees))
	for exchange, rate := range tmp.Fees {
		fee, err := decimal.NewFromString(rate)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fees' param for %s in yaml config (correct format is 0.0004), error: %w", exchange, err)
		}
		cfg.Fees[exchange] = fee
	}

	if tmp.Notional == "" {
		cfg.Notional = def.Notional
	} else {
		n, err := decimal.NewFromString(tmp.Notional)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'notional' param in yaml config (correct format is 10000), error: %w", err)
		}
		cfg.Notional = n
	}

	return cfg, nil
}

// Validate fails fast on structural problems so bad configuration is caught
// at startup, not at first use.
func (c Config) Validate() error {
	if len(c.Exchanges) == 0 {
		return fmt.Errorf("no exchanges configured")
	}
	if len(c.BaseAssets) == 0 {
		return fmt.Errorf("no base assets configured")
	}
	if !c.Notional.IsPositive() {
		return fmt.Errorf("notional must be positive, got %s", c.Notional)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", c.ScanInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	if err := c.Fees.Validate(); err != nil {
		return err
	}

	known := make(map[string]struct{}, len(c.Exchanges))
	for _, name := range c.Exchanges {
		known[name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(c.Mappings))
	for _, m := range c.Mappings {
		if _, ok := known[m.Exchange]; !ok {
			return fmt.Errorf("instrument mapping references exchange %q that is not in the exchanges list", m.Exchange)
		}
		if m.Symbol == "" {
			return fmt.Errorf("instrument mapping for %s/%s has empty symbol", m.Exchange, m.BaseAsset)
		}
		if !m.Market.IsValid() {
			return fmt.Errorf("instrument mapping for %s/%s has invalid market type %q", m.Exchange, m.BaseAsset, m.Market)
		}
		key := m.Exchange + "/" + m.BaseAsset
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate instrument mapping for %s", key)
		}
		seen[key] = struct{}{}
	}

	return nil
}
