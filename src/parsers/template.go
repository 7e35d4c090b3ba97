package parsers

import "time"

// Template selects which CSV schema and row policies apply to an upload.
type Template string

const (
	// TemplateDefault is the simple portfolio export: every row is a BUY with
	// a per-unit purchase price and an explicit asset type.
	TemplateDefault Template = "default"
	// TemplateGroww is the Groww order export: tab or comma delimited, rows
	// carry a BUY/SELL type, an order status, a strict timestamp, and a total
	// order value instead of a per-unit price.
	TemplateGroww Template = "groww"
)

// SchemaMapping overrides the Groww template's expected column names, for
// exports whose headers were localized or renamed.
type SchemaMapping struct {
	Asset    string `json:"asset"`
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// Logical fields resolved against the header row.
type field string

const (
	fieldAsset        field = "asset"
	fieldType         field = "type"
	fieldQuantity     field = "quantity"
	fieldPrice        field = "price"
	fieldCurrentPrice field = "currentPrice"
	fieldAssetType    field = "assetType"
	fieldDate         field = "date"
	fieldStatus       field = "status"
)

// templateConfig is the single per-template policy record consumed by the
// generic row pipeline: column names, date parsing, status filtering, and the
// price/type conventions of the source file. Template differences live here,
// not in duplicated code paths.
type templateConfig struct {
	name           string
	columns        map[field]string
	required       []field
	optional       []field
	parseDate      func(string) (time.Time, bool)
	statusExecuted string // non-empty: rows must carry this status (upper-cased)
	impliedBuy     bool   // every row is a BUY, no type column
	priceIsTotal   bool   // price column holds the total order value, not per-unit
	assetSuffix    string // appended to the raw asset name to form the ticker key
	checkAssetType bool   // asset type column must hold a known enum value
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		name: string(TemplateDefault),
		columns: map[field]string{
			fieldAsset:        "Asset",
			fieldQuantity:     "Quantity",
			fieldPrice:        "PurchasePrice",
			fieldCurrentPrice: "CurrentPrice",
			fieldAssetType:    "AssetType",
			fieldDate:         "Date",
		},
		required:       []field{fieldAsset, fieldQuantity, fieldPrice, fieldCurrentPrice, fieldAssetType},
		optional:       []field{fieldDate},
		parseDate:      parseFlexibleDate,
		impliedBuy:     true,
		checkAssetType: true,
	}
}

func growwTemplateConfig(mapping *SchemaMapping) templateConfig {
	columns := map[field]string{
		fieldAsset:    "Stock name",
		fieldType:     "Type",
		fieldQuantity: "Quantity",
		fieldPrice:    "Price",
		fieldDate:     "Execution date and time",
		fieldStatus:   "Order status",
	}
	if mapping != nil {
		overrides := map[field]string{
			fieldAsset:    mapping.Asset,
			fieldType:     mapping.Type,
			fieldQuantity: mapping.Quantity,
			fieldPrice:    mapping.Price,
			fieldDate:     mapping.Date,
			fieldStatus:   mapping.Status,
		}
		for f, name := range overrides {
			if name != "" {
				columns[f] = name
			}
		}
	}
	return templateConfig{
		name:           string(TemplateGroww),
		columns:        columns,
		required:       []field{fieldAsset, fieldType, fieldQuantity, fieldPrice, fieldDate, fieldStatus},
		parseDate:      ParseGrowwDate,
		statusExecuted: "EXECUTED",
		priceIsTotal:   true,
		assetSuffix:    ".NS", // Groww lists NSE equities
	}
}
