package domain

import "time"

// MergedRecord is one element of a Snapshot.
//
// FundingRate, MarketCap and FullyDilutedValuation default to 0 when the
// corresponding source had no entry; HasFundingRate and HasMarketData tell
// the two cases apart. SpotTradeURL is nil unless HasSpotMarket is true.
type MergedRecord struct {
	Symbol                string  `json:"symbol"`
	DisplayName           string  `json:"name"`
	Price                 float64 `json:"price"`
	Change24h             float64 `json:"change24h"`
	FundingRate           float64 `json:"fundingRate"`
	MarketCap             float64 `json:"market_cap"`
	FullyDilutedValuation float64 `json:"fdv"`
	HasSpotMarket         bool    `json:"hasSpot"`
	SpotTradeURL          *string `json:"spotUrl"`
	HasFundingRate        bool    `json:"hasFundingRate"`
	HasMarketData         bool    `json:"hasMarketData"`
}

// Snapshot is the ordered list of merged records built in one cycle.
// It is never mutated after being published.
type Snapshot []MergedRecord

// HistoryRow is a snapshot record as persisted by a HistoryStore.
type HistoryRow struct {
	Symbol      string
	Name        string
	Price       float64
	Change24h   float64
	FundingRate float64
	MarketCap   float64
	FDV         float64
	Timestamp   time.Time
}
