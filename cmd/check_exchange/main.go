package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/perp_board/internal/config"
	"github.com/vitos/perp_board/internal/infrastructure/exchange"
	"github.com/vitos/perp_board/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	show := flag.Int("show", 10, "number of records to print")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Binance endpoints...\n")
	fmt.Printf("Spot: %s\nFutures: %s\nMarket: %s\n", cfg.Exchange.SpotURL, cfg.Exchange.FuturesURL, cfg.Exchange.MarketURL)

	adapter := exchange.NewBinanceAdapter(cfg.Exchange.SpotURL, cfg.Exchange.FuturesURL, cfg.Exchange.MarketURL, cfg.Exchange.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 2. Reference caches
	refs := usecase.NewReferenceData(adapter)
	if n, err := refs.RefreshSpot(ctx); err != nil {
		fmt.Printf("❌ Spot exchangeInfo: %v\n", err)
	} else {
		fmt.Printf("✅ Trading spot symbols: %d\n", n)
	}
	if n, err := refs.RefreshFutures(ctx); err != nil {
		fmt.Printf("❌ Futures exchangeInfo: %v\n", err)
	} else {
		fmt.Printf("✅ Perpetual contracts: %d\n", n)
	}
	if n, err := refs.RefreshMarketData(ctx); err != nil {
		fmt.Printf("❌ Market listing: %v\n", err)
	} else {
		fmt.Printf("✅ Market data entries: %d\n", n)
	}

	// 3. Live feeds
	tickers, err := adapter.GetTickers(ctx)
	if err != nil {
		fmt.Printf("❌ Tickers: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Tickers: %d\n", len(tickers))

	funding, err := adapter.GetFundingRates(ctx)
	if err != nil {
		fmt.Printf("❌ Funding rates: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Funding rates: %d\n", len(funding))

	// 4. Snapshot
	snap := usecase.BuildSnapshot(tickers, funding, usecase.BuildInputs{
		Spot:    refs.SpotSymbols(),
		Futures: refs.Futures(),
		Market:  refs.MarketData(),
	}, usecase.BuildOptions{
		QuoteAsset:   cfg.Exchange.QuoteAsset,
		TradeURLBase: cfg.Exchange.TradeURLBase,
	})

	var withSpot, withMarket, withFunding int
	for _, r := range snap {
		if r.HasSpotMarket {
			withSpot++
		}
		if r.HasMarketData {
			withMarket++
		}
		if r.HasFundingRate {
			withFunding++
		}
	}
	fmt.Printf("\nSnapshot: %d records, %d with spot, %d with market data, %d with funding\n",
		len(snap), withSpot, withMarket, withFunding)

	for i, r := range snap {
		if i >= *show {
			break
		}
		spot := "-"
		if r.SpotTradeURL != nil {
			spot = *r.SpotTradeURL
		}
		fmt.Printf("%-16s price=%-14g change=%-8.2f funding=%-10g mcap=%-14.0f %s\n",
			r.Symbol, r.Price, r.Change24h, r.FundingRate, r.MarketCap, spot)
	}
}
