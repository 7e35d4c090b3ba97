package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/investview/backend/src/config"
	"github.com/username/investview/backend/src/logger"
)

const (
	priceStatusOK          = "OK"
	priceStatusUnavailable = "UNAVAILABLE"
)

// eodhdBulkRecord mirrors one entry of the EODHD bulk last-day response.
type eodhdBulkRecord struct {
	Code  string  `json:"code"`
	Close float64 `json:"close"`
}

type eodhdPriceService struct {
	httpClient *http.Client
	priceCache *cache.Cache
}

func NewPriceService() PriceService {
	return &eodhdPriceService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		priceCache: cache.New(config.Cfg.PriceCacheTTL, config.Cfg.CacheCleanupInterval),
	}
}

// GetCurrentPrices resolves last-day closing prices for the given tickers.
// Tickers carrying a recognised exchange suffix (.NS, .BO) are looked up in
// one bulk request per exchange; everything else comes back UNAVAILABLE so a
// caller can fall back to purchase prices without special-casing failures.
func (s *eodhdPriceService) GetCurrentPrices(tickers []string) (map[string]PriceInfo, error) {
	prices := make(map[string]PriceInfo, len(tickers))
	byExchange := make(map[string][]string)

	for _, ticker := range tickers {
		exchange := exchangeForTicker(ticker)
		if exchange == "" {
			prices[ticker] = PriceInfo{Status: priceStatusUnavailable}
			continue
		}
		byExchange[exchange] = append(byExchange[exchange], ticker)
	}

	if len(byExchange) > 0 && config.Cfg.EodhdAPIKey == "" {
		logger.L.Warn("EODHD_API_KEY not configured, returning unavailable for all exchange-listed tickers")
		for _, exchangeTickers := range byExchange {
			for _, ticker := range exchangeTickers {
				prices[ticker] = PriceInfo{Status: priceStatusUnavailable}
			}
		}
		return prices, nil
	}

	for exchange, exchangeTickers := range byExchange {
		closes, err := s.exchangeCloses(exchange)
		if err != nil {
			logger.L.Error("Failed to fetch bulk prices", "exchange", exchange, "error", err)
			for _, ticker := range exchangeTickers {
				prices[ticker] = PriceInfo{Status: priceStatusUnavailable}
			}
			continue
		}
		for _, ticker := range exchangeTickers {
			symbol := strings.TrimSuffix(strings.TrimSuffix(ticker, ".NS"), ".BO")
			if close, found := closes[symbol]; found {
				prices[ticker] = PriceInfo{Status: priceStatusOK, Price: close, Currency: "INR"}
			} else {
				prices[ticker] = PriceInfo{Status: priceStatusUnavailable}
			}
		}
	}

	return prices, nil
}

// exchangeCloses returns symbol -> close for one exchange, cached per exchange
// since the bulk endpoint returns the whole board in a single call.
func (s *eodhdPriceService) exchangeCloses(exchange string) (map[string]float64, error) {
	cacheKey := "eodhd_bulk_" + exchange
	if cached, found := s.priceCache.Get(cacheKey); found {
		logger.L.Debug("Price cache hit", "exchange", exchange)
		return cached.(map[string]float64), nil
	}

	url := fmt.Sprintf("%s/eod-bulk-last-day/%s?api_token=%s&fmt=json",
		config.Cfg.EodhdBaseURL, exchange, config.Cfg.EodhdAPIKey)

	resp, err := s.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error requesting bulk prices for %s: %w", exchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bulk price request for %s returned status %d: %s", exchange, resp.StatusCode, string(body))
	}

	var records []eodhdBulkRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding bulk price response for %s: %w", exchange, err)
	}

	closes := make(map[string]float64, len(records))
	for _, record := range records {
		closes[record.Code] = record.Close
	}

	s.priceCache.Set(cacheKey, closes, cache.DefaultExpiration)
	logger.L.Info("Fetched bulk prices", "exchange", exchange, "symbols", len(closes))
	return closes, nil
}

func exchangeForTicker(ticker string) string {
	switch {
	case strings.HasSuffix(ticker, ".NS"):
		return "NSE"
	case strings.HasSuffix(ticker, ".BO"):
		return "BSE"
	default:
		return ""
	}
}
