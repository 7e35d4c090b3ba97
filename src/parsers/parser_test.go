package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/investview/backend/src/models"
)

const growwHeader = "Stock name,Type,Quantity,Price,Execution date and time,Order status"

func TestParseDefaultTemplate(t *testing.T) {
	csv := strings.Join([]string{
		"Asset,Quantity,PurchasePrice,CurrentPrice,AssetType,Date",
		"RELIANCE.NS,10,2500,2600,Stock,2024-01-15",
		"RELIANCE.NS,10,2700,2600,Stock,2024-02-15",
		"BTC,0.5,4000000,4100000,Cryptocurrency,2024-01-20",
	}, "\n")

	result := Parse(csv, TemplateDefault, nil)
	require.Empty(t, result.Error)
	require.Len(t, result.Transactions, 3)
	require.Len(t, result.Assets, 2)

	// Two buys of the same asset aggregate into one weighted-average holding.
	rel := result.Assets[0]
	assert.Equal(t, "RELIANCE.NS", rel.Asset)
	assert.Equal(t, 20.0, rel.Quantity)
	assert.Equal(t, 2600.0, rel.PurchasePrice)
	assert.Equal(t, models.AssetTypeStock, rel.AssetType)

	btc := result.Assets[1]
	assert.Equal(t, "BTC", btc.Asset)
	assert.Equal(t, models.AssetTypeCryptocurrency, btc.AssetType)

	for _, tx := range result.Transactions {
		assert.Equal(t, models.TransactionBuy, tx.Type)
	}
	assert.Zero(t, result.RealizedProfit)
}

func TestParseDefaultTemplateSkipsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"Asset,Quantity,PurchasePrice,CurrentPrice,AssetType",
		"GOLD,2,5000,5100,Commodity",
		"BOND,3,100,100,Bond",       // unknown asset type
		"GOLD,abc,5000,5100,Commodity", // bad quantity
		"GOLD,2,5000",               // short row
		"",                          // empty row
	}, "\n")

	result := Parse(csv, TemplateDefault, nil)
	require.Empty(t, result.Error)
	require.Len(t, result.Transactions, 1)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "GOLD", result.Assets[0].Asset)

	bond := result.Logs.AssetLogs["BOND"]
	require.NotNil(t, bond)
	require.NotEmpty(t, bond.Logs)
	assert.Equal(t, "Skipped", bond.Logs[len(bond.Logs)-1].Result)
}

func TestParseGrowwSellChain(t *testing.T) {
	// Groww rows carry the total order value: BUY 10 for 1000 (100/unit),
	// SELL 4 for 600 (150/unit), BUY 5 for 600 (120/unit).
	csv := strings.Join([]string{
		growwHeader,
		"RELIANCE,BUY,10,1000,01-04-2024 10:30 AM,EXECUTED",
		"RELIANCE,sell,4,600,02-04-2024 11:00 AM,executed",
		"RELIANCE,Buy,5,600,03-04-2024 1:15 PM,EXECUTED",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	require.Len(t, result.Transactions, 3)
	require.Len(t, result.Assets, 1)

	assert.Equal(t, 200.0, result.RealizedProfit)

	rel := result.Assets[0]
	assert.Equal(t, "RELIANCE.NS", rel.Asset)
	assert.Equal(t, 11.0, rel.Quantity)
	assert.Equal(t, 1200.0/11.0, rel.PurchasePrice)
	assert.Equal(t, rel.PurchasePrice, rel.CurrentPrice)

	// The validator hands the ledger per-unit prices, never row totals.
	assert.Equal(t, 100.0, result.Transactions[0].Price)
	assert.Equal(t, 150.0, result.Transactions[1].Price)
	assert.Equal(t, 120.0, result.Transactions[2].Price)
}

func TestParseGrowwClosedPositionExcluded(t *testing.T) {
	csv := strings.Join([]string{
		growwHeader,
		"TCS,BUY,10,500,01-04-2024 10:30 AM,EXECUTED",
		"TCS,SELL,10,750,02-04-2024 10:30 AM,EXECUTED",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	assert.Empty(t, result.Assets)
	assert.Equal(t, 250.0, result.RealizedProfit)
	assert.Len(t, result.Transactions, 2)
}

func TestParseGrowwStatusFilter(t *testing.T) {
	csv := strings.Join([]string{
		growwHeader,
		"INFY,BUY,5,7500,01-04-2024 10:30 AM,PENDING",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	assert.Empty(t, result.Transactions)
	assert.Empty(t, result.Assets)

	al := result.Logs.AssetLogs["INFY.NS"]
	require.NotNil(t, al)
	last := al.Logs[len(al.Logs)-1]
	assert.Equal(t, "Skipped", last.Result)
	assert.Contains(t, last.Details, "PENDING")
}

func TestParseGrowwInvalidDateSkipped(t *testing.T) {
	csv := strings.Join([]string{
		growwHeader,
		"INFY,BUY,5,7500,31-04-2024 10:30 AM,EXECUTED", // April has 30 days
		"INFY,BUY,5,7500,30-04-2024 10:30 AM,EXECUTED",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 30, result.Transactions[0].Date.Day())
}

func TestParseGrowwMissingColumns(t *testing.T) {
	csv := strings.Join([]string{
		"Stock name,Type,Quantity,Price,Execution date and time",
		"RELIANCE,BUY,10,1000,01-04-2024 10:30 AM",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.NotEmpty(t, result.Error)
	assert.Contains(t, result.Error, "Order status")
	assert.Empty(t, result.Assets)
	assert.Empty(t, result.Transactions)
}

func TestParseGrowwSchemaMappingOverride(t *testing.T) {
	csv := strings.Join([]string{
		"Instrument,Side,Qty,Value,Executed at,State",
		"RELIANCE,BUY,2,200,01-04-2024 10:30 AM,EXECUTED",
	}, "\n")

	mapping := &SchemaMapping{
		Asset:    "Instrument",
		Type:     "Side",
		Quantity: "Qty",
		Price:    "Value",
		Date:     "Executed at",
		Status:   "State",
	}
	result := Parse(csv, TemplateGroww, mapping)
	require.Empty(t, result.Error)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "RELIANCE.NS", result.Assets[0].Asset)
	assert.Equal(t, 100.0, result.Assets[0].PurchasePrice)
}

func TestParseGrowwTabDelimited(t *testing.T) {
	csv := strings.Join([]string{
		strings.ReplaceAll(growwHeader, ",", "\t"),
		// A comma inside a field must not split when tab is the delimiter.
		"Reliance, Ltd\tBUY\t10\t1000\t01-04-2024 10:30 AM\tEXECUTED",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Reliance, Ltd.NS", result.Transactions[0].Asset)
}

func TestParseStructuralFailures(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		template Template
	}{
		{"empty input", "", TemplateGroww},
		{"whitespace only", "  \n \n", TemplateDefault},
		{"header without data", growwHeader, TemplateGroww},
		{"unknown template", "Asset,Quantity\nX,1", Template("xlsx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.csv, tt.template, nil)
			require.NotEmpty(t, result.Error)
			assert.Empty(t, result.Assets)
			assert.Empty(t, result.Transactions)
			assert.NotEmpty(t, result.Logs.Setup)
		})
	}
}

func TestParseIdempotence(t *testing.T) {
	csv := strings.Join([]string{
		growwHeader,
		"RELIANCE,BUY,10,1000,01-04-2024 10:30 AM,EXECUTED",
		"TCS,BUY,3,1500,01-04-2024 11:00 AM,EXECUTED",
		"RELIANCE,SELL,4,600,02-04-2024 10:30 AM,EXECUTED",
	}, "\n")

	first := Parse(csv, TemplateGroww, nil)
	second := Parse(csv, TemplateGroww, nil)

	require.Empty(t, first.Error)
	assert.Equal(t, first.Assets, second.Assets)
	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, first.RealizedProfit, second.RealizedProfit)
}

func TestParseFileOrderNotDateOrder(t *testing.T) {
	// A sell listed before its buy hits the no-recorded-buys path even though
	// its date is later: the engine processes file order, not date order.
	csv := strings.Join([]string{
		growwHeader,
		"WIPRO,SELL,5,500,02-04-2024 10:30 AM,EXECUTED",
		"WIPRO,BUY,5,400,01-04-2024 10:30 AM,EXECUTED",
	}, "\n")

	result := Parse(csv, TemplateGroww, nil)
	require.Empty(t, result.Error)
	assert.Zero(t, result.RealizedProfit)
	assert.Empty(t, result.Assets) // 5 bought into a -5 position nets to zero
}
