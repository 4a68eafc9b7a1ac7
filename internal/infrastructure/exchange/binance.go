package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vitos/perp_board/internal/domain"
)

const (
	BinanceSpotURL    = "https://api.binance.com"
	BinanceFuturesURL = "https://fapi.binance.com"
	BinanceMarketURL  = "https://www.binance.com"

	spotExchangeInfoPath    = "/api/v3/exchangeInfo"
	futuresExchangeInfoPath = "/fapi/v1/exchangeInfo"
	futuresTickerPath       = "/fapi/v1/ticker/24hr"
	futuresPremiumIndexPath = "/fapi/v1/premiumIndex"
	marketListingPath       = "/bapi/composite/v1/public/marketing/symbol/list"

	maxErrorBody = 512
)

// ErrMissingField is returned when a successful response lacks the list it
// should carry, e.g. a maintenance body.
var ErrMissingField = errors.New("response missing data")

// APIError is returned for upstream responses with status >= 400.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error: status %d: %s", e.StatusCode, e.Body)
}

// BinanceAdapter reads the public spot, futures and market listing feeds.
type BinanceAdapter struct {
	spotURL    string
	futuresURL string
	marketURL  string
	timeout    time.Duration
	client     *http.Client
}

// NewBinanceAdapter builds an adapter; empty URLs fall back to the public
// Binance hosts. Every request is bounded by timeout.
func NewBinanceAdapter(spotURL, futuresURL, marketURL string, timeout time.Duration) *BinanceAdapter {
	if spotURL == "" {
		spotURL = BinanceSpotURL
	}
	if futuresURL == "" {
		futuresURL = BinanceFuturesURL
	}
	if marketURL == "" {
		marketURL = BinanceMarketURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceAdapter{
		spotURL:    spotURL,
		futuresURL: futuresURL,
		marketURL:  marketURL,
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
	}
}

func (b *BinanceAdapter) getJSON(ctx context.Context, url string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (b *BinanceAdapter) GetSpotInstruments(ctx context.Context) ([]domain.SpotInstrument, error) {
	var result struct {
		Symbols *[]struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	if err := b.getJSON(ctx, b.spotURL+spotExchangeInfoPath, &result); err != nil {
		return nil, err
	}
	if result.Symbols == nil {
		return nil, fmt.Errorf("spot exchange info: %w", ErrMissingField)
	}

	instruments := make([]domain.SpotInstrument, 0, len(*result.Symbols))
	for _, s := range *result.Symbols {
		instruments = append(instruments, domain.SpotInstrument{Symbol: s.Symbol, Status: s.Status})
	}
	return instruments, nil
}

func (b *BinanceAdapter) GetFuturesInstruments(ctx context.Context) ([]domain.FuturesInstrument, error) {
	var result struct {
		Symbols *[]struct {
			Symbol       string `json:"symbol"`
			ContractType string `json:"contractType"`
			BaseAsset    string `json:"baseAsset"`
			QuoteAsset   string `json:"quoteAsset"`
		} `json:"symbols"`
	}
	if err := b.getJSON(ctx, b.futuresURL+futuresExchangeInfoPath, &result); err != nil {
		return nil, err
	}
	if result.Symbols == nil {
		return nil, fmt.Errorf("futures exchange info: %w", ErrMissingField)
	}

	instruments := make([]domain.FuturesInstrument, 0, len(*result.Symbols))
	for _, s := range *result.Symbols {
		instruments = append(instruments, domain.FuturesInstrument{
			Symbol:       s.Symbol,
			ContractType: s.ContractType,
			BaseAsset:    s.BaseAsset,
			QuoteAsset:   s.QuoteAsset,
		})
	}
	return instruments, nil
}

func (b *BinanceAdapter) GetTickers(ctx context.Context) ([]domain.TickerRecord, error) {
	var raw []struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := b.getJSON(ctx, b.futuresURL+futuresTickerPath, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("24h ticker: %w", ErrMissingField)
	}

	tickers := make([]domain.TickerRecord, 0, len(raw))
	for _, t := range raw {
		price, _ := strconv.ParseFloat(t.LastPrice, 64)
		change, _ := strconv.ParseFloat(t.PriceChangePercent, 64)
		tickers = append(tickers, domain.TickerRecord{
			Symbol:             t.Symbol,
			LastPrice:          price,
			PriceChangePercent: change,
		})
	}
	return tickers, nil
}

func (b *BinanceAdapter) GetFundingRates(ctx context.Context) ([]domain.FundingRecord, error) {
	var raw []struct {
		Symbol          string `json:"symbol"`
		LastFundingRate string `json:"lastFundingRate"`
	}
	if err := b.getJSON(ctx, b.futuresURL+futuresPremiumIndexPath, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("premium index: %w", ErrMissingField)
	}

	rates := make([]domain.FundingRecord, 0, len(raw))
	for _, r := range raw {
		rate, err := strconv.ParseFloat(r.LastFundingRate, 64)
		rates = append(rates, domain.FundingRecord{
			Symbol:          r.Symbol,
			LastFundingRate: rate,
			HasRate:         err == nil,
		})
	}
	return rates, nil
}

func (b *BinanceAdapter) GetMarketListings(ctx context.Context) ([]domain.MarketListing, error) {
	var result struct {
		Data *[]struct {
			Symbol                string    `json:"symbol"`
			MarketCap             flexFloat `json:"marketCap"`
			FullyDilutedMarketCap flexFloat `json:"fullyDilutedMarketCap"`
			MapperName            *string   `json:"mapperName"`
		} `json:"data"`
	}
	if err := b.getJSON(ctx, b.marketURL+marketListingPath, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, fmt.Errorf("market listing: %w", ErrMissingField)
	}

	listings := make([]domain.MarketListing, 0, len(*result.Data))
	for _, item := range *result.Data {
		if item.Symbol == "" {
			continue
		}
		listing := domain.MarketListing{
			Symbol:                item.Symbol,
			MarketCap:             float64(item.MarketCap),
			FullyDilutedMarketCap: float64(item.FullyDilutedMarketCap),
		}
		if item.MapperName != nil {
			listing.MapperName = *item.MapperName
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// flexFloat decodes a JSON number, a numeric string or null. Anything
// unparsable decodes to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = 0
		}
		*f = flexFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		v = 0
	}
	*f = flexFloat(v)
	return nil
}
