package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/vitos/perp_board/internal/domain"
)

// DefaultTradeURLBase is the spot trading page prefix.
const DefaultTradeURLBase = "https://www.binance.com/en/trade"

// BuildOptions controls snapshot construction.
type BuildOptions struct {
	QuoteAsset   string // only symbols ending in this quote are kept
	TradeURLBase string
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.QuoteAsset == "" {
		o.QuoteAsset = DefaultQuoteAsset
	}
	if o.TradeURLBase == "" {
		o.TradeURLBase = DefaultTradeURLBase
	}
	o.TradeURLBase = strings.TrimRight(o.TradeURLBase, "/")
	return o
}

// BuildInputs are the reference caches a build reads from.
type BuildInputs struct {
	Spot    domain.SpotSymbolSet
	Futures domain.FuturesContracts
	Market  domain.MarketData
}

// BuildSnapshot merges one ticker batch and its funding batch with the
// reference caches. Records follow ticker order; tickers not quoted in
// opts.QuoteAsset are dropped. The result is never nil.
func BuildSnapshot(tickers []domain.TickerRecord, funding []domain.FundingRecord, in BuildInputs, opts BuildOptions) domain.Snapshot {
	opts = opts.withDefaults()

	rates := make(map[string]float64, len(funding))
	for _, f := range funding {
		if f.HasRate {
			rates[f.Symbol] = finite(f.LastFundingRate)
		}
	}

	resolver := NewSymbolResolver(in.Spot, in.Market)
	snap := make(domain.Snapshot, 0, len(tickers))

	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, opts.QuoteAsset) {
			continue
		}

		rate, hasRate := rates[t.Symbol]

		base := strings.TrimSuffix(t.Symbol, opts.QuoteAsset)
		quote := opts.QuoteAsset
		if contract, ok := in.Futures[t.Symbol]; ok {
			base = contract.BaseAsset
			if contract.QuoteAsset != "" {
				quote = contract.QuoteAsset
			}
		}

		match, hasSpot := resolver.Resolve(base, quote, t.Symbol)

		marketSymbol := t.Symbol
		if hasSpot {
			marketSymbol = match.Symbol
		}
		datum, hasMarket := in.Market.Lookup(marketSymbol)

		var spotURL *string
		if hasSpot {
			u := fmt.Sprintf("%s/%s_%s?type=spot", opts.TradeURLBase, match.Base, quote)
			spotURL = &u
		}

		snap = append(snap, domain.MergedRecord{
			Symbol:                t.Symbol,
			DisplayName:           base,
			Price:                 finite(t.LastPrice),
			Change24h:             finite(t.PriceChangePercent),
			FundingRate:           rate,
			MarketCap:             datum.MarketCap,
			FullyDilutedValuation: datum.FullyDilutedValuation,
			HasSpotMarket:         hasSpot,
			SpotTradeURL:          spotURL,
			HasFundingRate:        hasRate,
			HasMarketData:         hasMarket,
		})
	}

	return snap
}

// finite maps NaN and infinities to 0 so every record serializes as JSON.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
