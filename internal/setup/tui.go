// Package setup implements the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// defaultFees are the taker fee suggestions shown per exchange.
var defaultFees = map[string]string{
	"binance":  "0.0004",
	"bybit":    "0.0006",
	"bitstamp": "0.004",
}

type yamlMapping struct {
	Symbol string `yaml:"symbol"`
	Market string `yaml:"market"`
}

type yamlConfig struct {
	Exchanges    []string                          `yaml:"exchanges"`
	BaseAssets   []string                          `yaml:"base_assets"`
	Instruments  map[string]map[string]yamlMapping `yaml:"instruments"`
	Fees         map[string]string                 `yaml:"fees"`
	Notional     string                            `yaml:"notional"`
	ScanInterval string                            `yaml:"scan_interval"`
}

// RunTUI launches the terminal configuration wizard and writes
// config.gen.yaml.
func RunTUI() error {
	var (
		exchanges []string
		assets    []string
		notional  string
		interval  string
		fees      = map[string]string{}
		confirm   bool
	)

	notional = "10000"
	interval = "15s"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("SPREADSCAN CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Pick your venues and assets, we'll do the rest.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EXCHANGES"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select exchanges to scan (need at least two)").
				Options(
					huh.NewOption("Binance (USDT perpetuals)", "binance").Selected(true),
					huh.NewOption("Bybit (USDT perpetuals)", "bybit").Selected(true),
					huh.NewOption("Bitstamp (USD spot)", "bitstamp").Selected(true),
				).
				Value(&exchanges),
		),
	).Run()
	if err != nil {
		return err
	}
	if len(exchanges) < 2 {
		return fmt.Errorf("at least two exchanges are required to find a spread")
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SPREADSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: BASE ASSETS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select base assets to scan").
				Options(
					huh.NewOption("BTC", "BTC").Selected(true),
					huh.NewOption("ETH", "ETH").Selected(true),
					huh.NewOption("SOL", "SOL").Selected(true),
					huh.NewOption("XRP", "XRP").Selected(true),
				).
				Value(&assets),
		),
	).Run()
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return fmt.Errorf("at least one base asset is required")
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SPREADSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TRADE SIMULATION"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Simulated trade notional (quote currency)").
				Value(&notional).
				Validate(func(s string) error {
					n, err := decimal.NewFromString(s)
					if err != nil || !n.IsPositive() {
						return fmt.Errorf("enter a positive number, e.g. 10000")
					}
					return nil
				}),
			huh.NewInput().
				Title("Scan interval (e.g. 15s, 1m)").
				Value(&interval).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil || d <= 0 {
						return fmt.Errorf("enter a positive duration, e.g. 15s")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SPREADSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: TAKER FEES"))
	feeGroup := make([]huh.Field, 0, len(exchanges))
	feeValues := make(map[string]*string, len(exchanges))
	for _, exchange := range exchanges {
		v := defaultFees[exchange]
		feeValues[exchange] = &v
		feeGroup = append(feeGroup, huh.NewInput().
			Title(fmt.Sprintf("Taker fee for %s (fraction, e.g. 0.0006)", exchange)).
			Value(feeValues[exchange]).
			Validate(func(s string) error {
				f, err := decimal.NewFromString(s)
				if err != nil || f.IsNegative() || f.GreaterThanOrEqual(decimal.NewFromInt(1)) {
					return fmt.Errorf("enter a fraction in [0, 1), e.g. 0.0006")
				}
				return nil
			}))
	}
	if err := huh.NewForm(huh.NewGroup(feeGroup...)).Run(); err != nil {
		return err
	}
	for exchange, v := range feeValues {
		fees[exchange] = *v
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SPREADSCAN CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write config.gen.yaml for %s on %s?",
					strings.Join(assets, ", "), strings.Join(exchanges, ", "))).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	cfg := yamlConfig{
		Exchanges:    exchanges,
		BaseAssets:   assets,
		Instruments:  map[string]map[string]yamlMapping{},
		Fees:         fees,
		Notional:     notional,
		ScanInterval: interval,
	}
	for _, exchange := range exchanges {
		cfg.Instruments[exchange] = map[string]yamlMapping{}
		for _, asset := range assets {
			cfg.Instruments[exchange][asset] = defaultMapping(exchange, asset)
		}
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile("config.gen.yaml", out, 0o644); err != nil {
		return fmt.Errorf("failed to write config.gen.yaml: %w", err)
	}

	done := lipgloss.NewStyle().Foreground(special).Bold(true)
	fmt.Println(done.Render("\nconfig.gen.yaml written. Run: spreadscan --config config.gen.yaml watch"))

	return nil
}

// defaultMapping reflects each venue's quoting convention: Binance and
// Bybit list the scanned assets as USDT perpetuals, Bitstamp as USD spot
// pairs.
func defaultMapping(exchange, asset string) yamlMapping {
	if exchange == "bitstamp" {
		return yamlMapping{Symbol: strings.ToLower(asset) + "usd", Market: "spot"}
	}
	return yamlMapping{Symbol: asset + "USDT", Market: "futures"}
}
