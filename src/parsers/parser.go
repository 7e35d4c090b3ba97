package parsers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/username/investview/backend/src/models"
	"github.com/username/investview/backend/src/processors"
	"github.com/username/investview/backend/src/security/validation"
)

// Parse reconciles a raw brokerage CSV/TSV export into a ledger of buy/sell
// transactions and the resulting average-cost holdings.
//
// The run is a single synchronous pass: tokenize, resolve the template schema
// against the header, then validate and filter each row in file order into the
// ledger. Rows are deliberately NOT re-sorted by date; cost-basis outcomes
// depend on processing order, so callers wanting chronological accounting must
// sort their input first.
//
// Structural failures (empty input, missing required columns, unknown
// template) populate ParseResult.Error and return empty assets/transactions.
// Row-level failures only skip the offending row, with the decision recorded
// in the audit logs. Parse never panics on malformed input.
func Parse(csvText string, template Template, mapping *SchemaMapping) *models.ParseResult {
	logs := models.NewParsingLogs()

	if strings.TrimSpace(csvText) == "" {
		return structuralFailure(logs, "the uploaded CSV file is empty")
	}

	var cfg templateConfig
	switch template {
	case TemplateGroww:
		cfg = growwTemplateConfig(mapping)
	case TemplateDefault, "":
		cfg = defaultTemplateConfig()
	default:
		return structuralFailure(logs, fmt.Sprintf("unknown CSV template %q", template))
	}

	lines := splitLines(csvText)
	if len(lines) < 2 {
		return structuralFailure(logs, "CSV file must contain a header row and at least one data row")
	}

	delimiter := detectDelimiter(lines[0])
	if delimiter == "\t" {
		logs.Setupf("Detected delimiter: tab")
	} else {
		logs.Setupf("Detected delimiter: comma")
	}

	headers := splitFields(lines[0], delimiter)
	logs.Setupf("Detected headers: %s", strings.Join(headers, ", "))
	logs.Setupf("Using %s template with columns %v", cfg.name, requiredColumnNames(cfg))

	sch, missing := resolveSchema(headers, cfg)
	if len(missing) > 0 {
		return structuralFailure(logs, fmt.Sprintf("invalid CSV headers, missing required columns: %s", strings.Join(missing, ", ")))
	}

	ledger := processors.NewLedgerProcessor()
	rp := rowParser{cfg: cfg, sch: sch, headerCount: len(headers), logs: logs}
	transactions := []models.Transaction{}

	for i := 1; i < len(lines); i++ {
		rowNum := i + 1
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			logs.Setupf("Row %d: empty row, skipped", rowNum)
			continue
		}

		tx, ok := rp.parse(rowNum, splitFields(line, delimiter))
		if !ok {
			continue
		}
		transactions = append(transactions, tx)
		al := logs.Asset(tx.Asset)
		al.Transactions = append(al.Transactions, tx)
		ledger.Apply(tx, logs)
	}

	assets := ledger.Holdings()
	logs.Summaryf("Finished processing. Total aggregated assets: %d. Total transactions: %d. Realized profit: %.2f",
		len(assets), len(transactions), ledger.RealizedProfit())

	return &models.ParseResult{
		Assets:         assets,
		Transactions:   transactions,
		RealizedProfit: ledger.RealizedProfit(),
		Logs:           logs,
	}
}

func structuralFailure(logs *models.ParsingLogs, msg string) *models.ParseResult {
	logs.Setupf("Error: %s", msg)
	return &models.ParseResult{
		Assets:       []models.Asset{},
		Transactions: []models.Transaction{},
		Logs:         logs,
		Error:        msg,
	}
}

func requiredColumnNames(cfg templateConfig) []string {
	names := make([]string, 0, len(cfg.required))
	for _, f := range cfg.required {
		names = append(names, cfg.columns[f])
	}
	return names
}

// rowParser validates and filters one data row at a time against the resolved
// schema, recording every skip decision before constructing a Transaction.
type rowParser struct {
	cfg         templateConfig
	sch         schema
	headerCount int
	logs        *models.ParsingLogs
}

// parse applies the row checks in fixed precedence order: column count,
// order status, asset type, numeric fields, date, transaction type. The first
// failing check wins and is logged; later checks are not evaluated.
func (p *rowParser) parse(rowNum int, fields []string) (models.Transaction, bool) {
	step := fmt.Sprintf("Row %d", rowNum)

	assetIdx := p.sch[fieldAsset]
	if assetIdx >= len(fields) || strings.TrimSpace(fields[assetIdx]) == "" {
		p.logs.Setupf("Row %d: malformed row without an asset name, skipped", rowNum)
		return models.Transaction{}, false
	}
	assetName := validation.SanitizeForFormulaInjection(validation.StripUnprintable(fields[assetIdx])) + p.cfg.assetSuffix
	al := p.logs.Asset(assetName)
	al.Record(step, "Read", fmt.Sprintf("Raw data: [%s]", strings.Join(fields, ", ")), "")

	if len(fields) < p.headerCount {
		al.Record(step, "Validate", fmt.Sprintf("Malformed row. Expected %d columns, got %d", p.headerCount, len(fields)), "Skipped")
		return models.Transaction{}, false
	}

	if p.cfg.statusExecuted != "" {
		status := strings.ToUpper(fields[p.sch[fieldStatus]])
		if status != p.cfg.statusExecuted {
			al.Record(step, "Filter", fmt.Sprintf("Order status is %q, not %s", fields[p.sch[fieldStatus]], p.cfg.statusExecuted), "Skipped")
			return models.Transaction{}, false
		}
	}

	assetType := models.AssetTypeStock
	if p.cfg.checkAssetType {
		assetType = fields[p.sch[fieldAssetType]]
		if !models.ValidAssetType(assetType) {
			al.Record(step, "Validate", fmt.Sprintf("Invalid asset type: %q", assetType), "Skipped")
			return models.Transaction{}, false
		}
	}

	quantity, ok := parseNumber(fields[p.sch[fieldQuantity]])
	if !ok || quantity == 0 {
		al.Record(step, "Validate", fmt.Sprintf("Invalid quantity: %q", fields[p.sch[fieldQuantity]]), "Skipped")
		return models.Transaction{}, false
	}
	price, ok := parseNumber(fields[p.sch[fieldPrice]])
	if !ok {
		al.Record(step, "Validate", fmt.Sprintf("Invalid price: %q", fields[p.sch[fieldPrice]]), "Skipped")
		return models.Transaction{}, false
	}
	if idx, has := p.sch[fieldCurrentPrice]; has {
		if _, ok := parseNumber(fields[idx]); !ok {
			al.Record(step, "Validate", fmt.Sprintf("Invalid current price: %q", fields[idx]), "Skipped")
			return models.Transaction{}, false
		}
	}

	date, ok := p.rowDate(fields)
	if !ok {
		al.Record(step, "Validate", fmt.Sprintf("Invalid date: %q", fields[p.sch[fieldDate]]), "Skipped")
		return models.Transaction{}, false
	}

	txType := models.TransactionBuy
	if !p.cfg.impliedBuy {
		txType = strings.ToUpper(fields[p.sch[fieldType]])
		if txType != models.TransactionBuy && txType != models.TransactionSell {
			al.Record(step, "Validate", fmt.Sprintf("Invalid transaction type: %q", fields[p.sch[fieldType]]), "Skipped")
			return models.Transaction{}, false
		}
	}

	// The ledger always works on per-unit prices. Groww files carry the total
	// order value in the price column, so the unit price is derived here;
	// quantity is already known to be nonzero.
	unitPrice := price
	if p.cfg.priceIsTotal {
		unitPrice = price / quantity
	}

	tx := models.Transaction{
		Asset:     assetName,
		Quantity:  quantity,
		Price:     unitPrice,
		Type:      txType,
		Date:      date,
		AssetType: assetType,
	}
	al.Record(step, "Parse", "Parsed transaction", fmt.Sprintf("Type: %s, Qty: %v, UnitPrice: %.4f", tx.Type, tx.Quantity, tx.Price))
	return tx, true
}

// rowDate applies the template's date policy. The default template treats the
// date column as optional and falls back to the current time; the Groww
// template requires its strict timestamp format.
func (p *rowParser) rowDate(fields []string) (time.Time, bool) {
	idx, has := p.sch[fieldDate]
	if !has {
		return time.Now(), true
	}
	raw := strings.TrimSpace(fields[idx])
	if raw == "" {
		if p.cfg.impliedBuy {
			return time.Now(), true
		}
		return time.Time{}, false
	}
	return p.cfg.parseDate(raw)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
