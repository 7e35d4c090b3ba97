package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/investview/backend/src/models"
	"github.com/username/investview/backend/src/parsers"
)

var (
	ErrParsingFailed = errors.New("csv parsing failed")
	ErrNoPortfolio   = errors.New("no portfolio has been imported")
)

// ImportService owns the parse-and-persist flow: it runs the CSV core,
// replaces the stored portfolio with the new transaction sequence, and serves
// the latest result from cache or by ledger replay from the database.
type ImportService interface {
	ImportCSV(fileReader io.Reader, template parsers.Template, mapping *parsers.SchemaMapping) (*models.ParseResult, error)
	LatestResult() (*models.ParseResult, error)
	Transactions() ([]models.Transaction, error)
	DeleteAll() error
}

// PriceInfo is the outcome of a live price lookup for one ticker.
type PriceInfo struct {
	Status   string  `json:"status"` // "OK" or "UNAVAILABLE"
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// PriceService resolves current prices for ticker symbols. Lookups that fail
// stay in the result map with status UNAVAILABLE rather than failing the call.
type PriceService interface {
	GetCurrentPrices(tickers []string) (map[string]PriceInfo, error)
}

// BhavcopyRecord is one equity row from the NSE daily bhavcopy file.
type BhavcopyRecord struct {
	Symbol      string  `json:"symbol"`
	Series      string  `json:"series"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Last        float64 `json:"last"`
	PrevClose   float64 `json:"prev_close"`
	TradedQty   float64 `json:"traded_qty"`
	TradedValue float64 `json:"traded_value"`
	ISIN        string  `json:"isin"`
}

// BhavcopyService downloads and parses the NSE end-of-day bhavcopy archive.
type BhavcopyService interface {
	FetchBhavcopy(date time.Time) ([]BhavcopyRecord, error)
}

// SuggestionService turns a plain-text portfolio summary into free-text
// investment suggestions.
type SuggestionService interface {
	ProvideSuggestions(ctx context.Context, portfolioData string) (string, error)
}
