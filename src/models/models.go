package models

import "time"

// Asset type values accepted by the default CSV template.
const (
	AssetTypeStock          = "Stock"
	AssetTypeCryptocurrency = "Cryptocurrency"
	AssetTypeCommodity      = "Commodity"
)

// Transaction direction values.
const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// ValidAssetType reports whether s is one of the supported asset types.
func ValidAssetType(s string) bool {
	switch s {
	case AssetTypeStock, AssetTypeCryptocurrency, AssetTypeCommodity:
		return true
	}
	return false
}

// Transaction is a single accepted buy or sell event. It is immutable once
// created by the row validator; the ledger and the audit log only read it.
type Transaction struct {
	Asset     string    `json:"asset"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"` // per-unit price, never a row total
	Type      string    `json:"type"`  // BUY or SELL
	Date      time.Time `json:"date"`
	AssetType string    `json:"asset_type"`
}

// Asset is the final per-ticker holding snapshot emitted after a parse run.
// PurchasePrice is the running weighted-average cost; CurrentPrice starts as
// the same value and is overwritten later by the price service.
type Asset struct {
	Asset         string  `json:"asset"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentPrice  float64 `json:"current_price"`
	AssetType     string  `json:"asset_type"`
}
