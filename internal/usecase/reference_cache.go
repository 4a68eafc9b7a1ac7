package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/vitos/perp_board/internal/domain"
)

// ReferenceData holds the three slowly refreshed reference caches. Each
// refresh builds a fresh value and swaps it in with a single store, so
// readers see either the previous or the new value in full.
type ReferenceData struct {
	feed domain.MarketFeed

	spot    atomic.Pointer[domain.SpotSymbolSet]
	futures atomic.Pointer[domain.FuturesContracts]
	market  atomic.Pointer[domain.MarketData]
}

func NewReferenceData(feed domain.MarketFeed) *ReferenceData {
	return &ReferenceData{feed: feed}
}

// RefreshSpot replaces the spot set with the symbols currently trading.
// On error the previous set is kept.
func (r *ReferenceData) RefreshSpot(ctx context.Context) (int, error) {
	instruments, err := r.feed.GetSpotInstruments(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch spot instruments: %w", err)
	}

	set := make(domain.SpotSymbolSet, len(instruments))
	for _, inst := range instruments {
		if inst.Status == domain.SpotStatusTrading {
			set[inst.Symbol] = struct{}{}
		}
	}
	r.spot.Store(&set)
	return len(set), nil
}

// RefreshFutures replaces the contract map with the perpetual contracts.
// On error the previous map is kept.
func (r *ReferenceData) RefreshFutures(ctx context.Context) (int, error) {
	instruments, err := r.feed.GetFuturesInstruments(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch futures instruments: %w", err)
	}

	contracts := make(domain.FuturesContracts, len(instruments))
	for _, inst := range instruments {
		if inst.ContractType != domain.ContractTypePerpetual {
			continue
		}
		contracts[inst.Symbol] = domain.FuturesContract{
			BaseAsset:  inst.BaseAsset,
			QuoteAsset: inst.QuoteAsset,
		}
	}
	r.futures.Store(&contracts)
	return len(contracts), nil
}

// RefreshMarketData replaces the market-cap map. Keys are uppercased and
// missing or invalid numbers become 0. On error the previous map is kept.
func (r *ReferenceData) RefreshMarketData(ctx context.Context) (int, error) {
	listings, err := r.feed.GetMarketListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch market listings: %w", err)
	}

	data := make(domain.MarketData, len(listings))
	for _, l := range listings {
		if l.Symbol == "" {
			continue
		}
		data[strings.ToUpper(l.Symbol)] = domain.MarketDatum{
			MarketCap:             nonNegative(l.MarketCap),
			FullyDilutedValuation: nonNegative(l.FullyDilutedMarketCap),
			MapperName:            l.MapperName,
		}
	}
	r.market.Store(&data)
	return len(data), nil
}

func (r *ReferenceData) SpotSymbols() domain.SpotSymbolSet {
	if p := r.spot.Load(); p != nil {
		return *p
	}
	return domain.SpotSymbolSet{}
}

func (r *ReferenceData) Futures() domain.FuturesContracts {
	if p := r.futures.Load(); p != nil {
		return *p
	}
	return domain.FuturesContracts{}
}

func (r *ReferenceData) MarketData() domain.MarketData {
	if p := r.market.Load(); p != nil {
		return *p
	}
	return domain.MarketData{}
}

// Ready reports whether every cache has been populated at least once.
func (r *ReferenceData) Ready() bool {
	return r.spot.Load() != nil && r.futures.Load() != nil && r.market.Load() != nil
}

// ReferenceStats is a point-in-time view of cache sizes.
type ReferenceStats struct {
	SpotSymbols int  `json:"spot_symbols"`
	Contracts   int  `json:"contracts"`
	MarketData  int  `json:"market_data"`
	Ready       bool `json:"ready"`
}

func (r *ReferenceData) Stats() ReferenceStats {
	return ReferenceStats{
		SpotSymbols: len(r.SpotSymbols()),
		Contracts:   len(r.Futures()),
		MarketData:  len(r.MarketData()),
		Ready:       r.Ready(),
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
