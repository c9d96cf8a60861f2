// Command spreadscan detects cross-exchange price arbitrage on crypto
// instruments. It polls best bid/ask quotes from the configured exchanges
// (Binance, Bybit, Bitstamp), applies taker fees and reports pairings whose
// simulated net profit is positive.
//
// Usage:
//
//	spreadscan [flags] <action>
//
// Actions:
//
//	scan      run one scan cycle now and print the result
//	watch     scan continuously until interrupted
//	feed      pull recent 1m candles into the sqlite store
//	backtest  replay stored candles through the spread simulation
//	view      print stored candles and persisted opportunities
//	setup     interactive configuration wizard
//
// Optional environment variables (public endpoints work without them):
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	BITSTAMP_API_KEY, BITSTAMP_API_SECRET
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vadiminshakov/spreadscan/config"
	"github.com/vadiminshakov/spreadscan/dashboard"
	"github.com/vadiminshakov/spreadscan/internal/clients"
	"github.com/vadiminshakov/spreadscan/internal/logging"
	"github.com/vadiminshakov/spreadscan/internal/services/backtest"
	"github.com/vadiminshakov/spreadscan/internal/services/collector"
	"github.com/vadiminshakov/spreadscan/internal/services/evaluator"
	"github.com/vadiminshakov/spreadscan/internal/services/marketdata"
	"github.com/vadiminshakov/spreadscan/internal/services/quoter"
	"github.com/vadiminshakov/spreadscan/internal/services/resolver"
	"github.com/vadiminshakov/spreadscan/internal/services/scanner"
	"github.com/vadiminshakov/spreadscan/internal/setup"
	"github.com/vadiminshakov/spreadscan/internal/storage/candles"
	"github.com/vadiminshakov/spreadscan/internal/storage/opportunities"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	action := flag.Arg(0)
	if action == "" {
		log.Fatal("no action provided, expected one of: scan, watch, feed, backtest, view, setup")
	}

	if action == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, closeLogger, err := logging.New(cfg.SessionLog)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch action {
	case "scan":
		err = runScan(ctx, cfg, logger)
	case "watch":
		err = runWatch(ctx, cfg, logger)
	case "feed":
		err = runFeed(ctx, cfg, logger)
	case "backtest":
		err = runBacktest(ctx, cfg, logger)
	case "view":
		err = runView(ctx, cfg)
	default:
		err = fmt.Errorf("unknown action %q, expected one of: scan, watch, feed, backtest, view, setup", action)
	}
	if err != nil {
		logger.Error("action failed", zap.String("action", action), zap.Error(err))
		closeLogger()
		os.Exit(1)
	}
}

func buildScanner(cfg config.Config, logger *zap.Logger) (*scanner.Scanner, *opportunities.WALStore, opportunities.Multi, error) {
	res, err := resolver.New(cfg.Mappings)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := quoter.NewRegistry(cfg.Exchanges, cfg.RequestTimeout)
	if err != nil {
		return nil, nil, nil, err
	}

	jsonlStore, err := opportunities.NewJSONLStore(cfg.OpportunitiesFile)
	if err != nil {
		return nil, nil, nil, err
	}
	walStore, err := opportunities.NewWALStore(cfg.WALDir)
	if err != nil {
		jsonlStore.Close()
		return nil, nil, nil, err
	}

	col := collector.New(res, registry, cfg.RequestTimeout, logger)
	eval := evaluator.New(cfg.Fees, cfg.Notional)
	sink := opportunities.NewMulti(jsonlStore, walStore)

	return scanner.New(cfg.BaseAssets, col, eval, sink, cfg.ScanInterval, logger), walStore, sink, nil
}

func runScan(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	scan, _, sink, err := buildScanner(cfg, logger)
	if err != nil {
		return err
	}
	// RunOnce leaves the sink open; both stores are released here.
	defer sink.Close()

	result := scan.RunOnce(ctx)
	opps := result.Opportunities()
	logger.Info("scan cycle finished",
		zap.Int("assets", len(result.Statuses)),
		zap.Int("opportunities", len(opps)))

	return nil
}

func runWatch(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// the scanner's Run closes the sink on shutdown.
	scan, walStore, _, err := buildScanner(cfg, logger)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, err := scan.Run(groupCtx)
		return err
	})

	if cfg.Dashboard.Enabled {
		server := dashboard.NewServer(cfg.Dashboard.Addr, walStore, scan)
		group.Go(func() error {
			if len(cfg.Dashboard.Domains) > 0 {
				return server.StartWithAutoTLS(groupCtx, cfg.Dashboard.Domains, cfg.Dashboard.CertCache)
			}
			return server.Start(groupCtx)
		})
		logger.Info("dashboard enabled", zap.String("addr", cfg.Dashboard.Addr))
	}

	return group.Wait()
}

func buildProviders(cfg config.Config) map[string]marketdata.KlineProvider {
	providers := make(map[string]marketdata.KlineProvider, len(cfg.Exchanges))
	for _, name := range cfg.Exchanges {
		apiKey, apiSecret, _ := clients.Credentials(name)
		switch name {
		case "binance":
			providers[name] = marketdata.NewBinanceKlineProvider(
				clients.NewBinanceClient(apiKey, apiSecret),
				clients.NewBinanceFuturesClient(apiKey, apiSecret),
			)
		case "bybit":
			providers[name] = marketdata.NewBybitKlineProvider(clients.NewBybitClient(apiKey, apiSecret, cfg.RequestTimeout))
		case "bitstamp":
			providers[name] = marketdata.NewBitstampKlineProvider(clients.NewBitstampClient(cfg.RequestTimeout))
		}
	}

	return providers
}

func runFeed(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	res, err := resolver.New(cfg.Mappings)
	if err != nil {
		return err
	}

	store, err := candles.NewStore(cfg.CandlesDB)
	if err != nil {
		return err
	}
	defer store.Close()

	feed := marketdata.NewFeed(res, buildProviders(cfg), store, cfg.BaseAssets, logger)
	stored, err := feed.Sync(ctx)
	if err != nil {
		return err
	}
	logger.Info("feed finished", zap.Int("new_bars", stored))

	return nil
}

func runBacktest(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if len(cfg.Exchanges) < 2 {
		return fmt.Errorf("backtest needs at least two configured exchanges")
	}

	res, err := resolver.New(cfg.Mappings)
	if err != nil {
		return err
	}

	store, err := candles.NewStore(cfg.CandlesDB)
	if err != nil {
		return err
	}
	defer store.Close()

	bt := backtest.New(store, res, cfg.Fees, logger)
	for _, asset := range cfg.BaseAssets {
		report, err := bt.Run(ctx, backtest.Params{
			BaseAsset: asset,
			ExchangeA: cfg.Exchanges[0],
			ExchangeB: cfg.Exchanges[1],
			Notional:  cfg.Notional,
		})
		if err != nil {
			logger.Warn("backtest skipped", zap.String("asset", asset), zap.Error(err))
			continue
		}

		fmt.Printf("\n=== %s (%s vs %s, %d bars) ===\n", asset, cfg.Exchanges[0], cfg.Exchanges[1], report.Bars)
		for _, trade := range report.Trades {
			fmt.Printf("%s -> %s  buy %-10s sell %-10s spread %s%% -> %s%%  pnl %s\n",
				trade.EntryTime.Format(time.DateTime), trade.ExitTime.Format(time.DateTime),
				trade.BuyExchange, trade.SellExchange,
				trade.EntrySpreadPct.StringFixed(4), trade.ExitSpreadPct.StringFixed(4),
				trade.PnL.StringFixed(2))
		}
		fmt.Printf("trades: %d, total pnl: %s\n", len(report.Trades), report.TotalPnL.StringFixed(2))
	}

	return nil
}

func runView(ctx context.Context, cfg config.Config) error {
	const lastBars = 10

	store, err := candles.NewStore(cfg.CandlesDB)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := resolver.New(cfg.Mappings)
	if err != nil {
		return err
	}

	for _, asset := range cfg.BaseAssets {
		for _, mapping := range res.MappingsFor(asset) {
			bars, err := store.Candles(ctx, mapping.Exchange, mapping.Symbol, lastBars)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				continue
			}

			fmt.Printf("\n=== %s %s (%s) ===\n", mapping.Exchange, mapping.Symbol, asset)
			fmt.Printf("%-20s %12s %12s %12s %12s %14s\n", "open time", "open", "high", "low", "close", "volume")
			for _, bar := range bars {
				fmt.Printf("%-20s %12s %12s %12s %12s %14s\n",
					bar.OpenTime.Format(time.DateTime),
					bar.Open.String(), bar.High.String(), bar.Low.String(), bar.Close.String(), bar.Volume.String())
			}
		}
	}

	walStore, err := opportunities.NewWALStore(cfg.WALDir)
	if err != nil {
		return err
	}
	defer walStore.Close()

	records, err := walStore.All()
	if err != nil {
		return err
	}

	fmt.Printf("\n=== persisted opportunities (%d) ===\n", len(records))
	for _, record := range records {
		opp := record.Opportunity
		fmt.Printf("%-20s cycle %-5d %-5s buy %-10s@%-12s sell %-10s@%-12s net %10s (%s%%)\n",
			opp.Timestamp.Format(time.DateTime), opp.CycleNumber, opp.BaseAsset,
			opp.BuyExchange, opp.BuyPrice.String(), opp.SellExchange, opp.SellPrice.String(),
			opp.NetProfit.StringFixed(2), opp.NetProfitPct.StringFixed(4))
	}

	return nil
}
