package usecase

import (
	"strings"

	"github.com/vitos/perp_board/internal/domain"
)

// DefaultQuoteAsset is assumed when a contract does not state its quote.
const DefaultQuoteAsset = "USDT"

// SpotMatch is the spot counterpart of a futures contract.
type SpotMatch struct {
	Base   string
	Symbol string
}

// SymbolResolver maps futures contracts to spot symbols. It only reads the
// sets it was built with.
type SymbolResolver struct {
	spot   domain.SpotSymbolSet
	market domain.MarketData
}

func NewSymbolResolver(spot domain.SpotSymbolSet, market domain.MarketData) *SymbolResolver {
	return &SymbolResolver{spot: spot, market: market}
}

// Resolve returns the spot pair for a futures contract, trying in order the
// exact base, the base without its leading digits ("1000PEPE" -> "PEPE"),
// and the mapper name the market data carries for futuresSymbol.
func (r *SymbolResolver) Resolve(baseAsset, quoteAsset, futuresSymbol string) (SpotMatch, bool) {
	if quoteAsset == "" {
		quoteAsset = DefaultQuoteAsset
	}

	if candidate := baseAsset + quoteAsset; r.spot.Has(candidate) {
		return SpotMatch{Base: baseAsset, Symbol: candidate}, true
	}

	trimmed := strings.TrimLeft(baseAsset, "0123456789")
	if trimmed != "" && trimmed != baseAsset {
		if candidate := trimmed + quoteAsset; r.spot.Has(candidate) {
			return SpotMatch{Base: trimmed, Symbol: candidate}, true
		}
	}

	if datum, ok := r.market.Lookup(futuresSymbol); ok && datum.MapperName != "" {
		if candidate := datum.MapperName + quoteAsset; r.spot.Has(candidate) {
			return SpotMatch{Base: datum.MapperName, Symbol: candidate}, true
		}
	}

	return SpotMatch{}, false
}
