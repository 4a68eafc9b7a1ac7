package domain

import "strings"

// Upstream statuses and contract types kept at ingestion.
const (
	SpotStatusTrading     = "TRADING"
	ContractTypePerpetual = "PERPETUAL"
)

// SpotInstrument is one row of the spot exchange info feed.
type SpotInstrument struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// FuturesInstrument is one row of the futures exchange info feed.
type FuturesInstrument struct {
	Symbol       string `json:"symbol"`
	ContractType string `json:"contract_type"`
	BaseAsset    string `json:"base_asset"`
	QuoteAsset   string `json:"quote_asset"`
}

// FuturesContract is the base/quote pair of a perpetual contract.
type FuturesContract struct {
	BaseAsset  string `json:"base_asset"`
	QuoteAsset string `json:"quote_asset"`
}

// FuturesContracts maps a futures symbol to its contract metadata.
type FuturesContracts map[string]FuturesContract

// SpotSymbolSet holds the spot pairs currently in trading status.
type SpotSymbolSet map[string]struct{}

func NewSpotSymbolSet(symbols ...string) SpotSymbolSet {
	set := make(SpotSymbolSet, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set
}

func (s SpotSymbolSet) Has(symbol string) bool {
	_, ok := s[symbol]
	return ok
}

// MarketListing is one raw row of the market-cap listing feed.
// Missing numeric fields are already 0.
type MarketListing struct {
	Symbol                string  `json:"symbol"`
	MarketCap             float64 `json:"market_cap"`
	FullyDilutedMarketCap float64 `json:"fully_diluted_market_cap"`
	MapperName            string  `json:"mapper_name"`
}

// MarketDatum is the normalized market-cap entry for a symbol.
// MarketCap and FullyDilutedValuation are never negative and default to 0.
// MapperName is an alternate base-asset name, empty when the feed has none.
type MarketDatum struct {
	MarketCap             float64 `json:"market_cap"`
	FullyDilutedValuation float64 `json:"fdv"`
	MapperName            string  `json:"mapper_name,omitempty"`
}

// MarketData maps an uppercased symbol to its market datum.
type MarketData map[string]MarketDatum

func (m MarketData) Lookup(symbol string) (MarketDatum, bool) {
	d, ok := m[strings.ToUpper(symbol)]
	return d, ok
}

// TickerRecord is one row of the futures 24h ticker feed.
type TickerRecord struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"last_price"`
	PriceChangePercent float64 `json:"price_change_percent"`
}

// FundingRecord is one row of the futures premium index feed.
// HasRate is false when the upstream row carried no usable funding rate.
type FundingRecord struct {
	Symbol          string  `json:"symbol"`
	LastFundingRate float64 `json:"last_funding_rate"`
	HasRate         bool    `json:"has_rate"`
}
