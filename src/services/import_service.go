package services

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/investview/backend/src/database"
	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/models"
	"github.com/username/investview/backend/src/parsers"
	"github.com/username/investview/backend/src/processors"
)

const ckLatestParseResult = "latest_parse_result"

type importServiceImpl struct {
	resultCache *cache.Cache
}

func NewImportService(resultCache *cache.Cache) ImportService {
	return &importServiceImpl{resultCache: resultCache}
}

// ImportCSV runs the parsing core over the uploaded file and, on success,
// replaces the stored portfolio with the new transaction sequence. The store
// keeps only the latest import: holdings are not persisted, they are rebuilt
// from the recorded transactions by ledger replay, which reproduces the same
// averages the parse produced.
func (s *importServiceImpl) ImportCSV(fileReader io.Reader, template parsers.Template, mapping *parsers.SchemaMapping) (*models.ParseResult, error) {
	start := time.Now()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}

	result := parsers.Parse(string(data), template, mapping)
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrParsingFailed, result.Error)
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Latest-import-only semantics: clear the previous portfolio first.
	if _, err := dbTx.Exec(`DELETE FROM transactions`); err != nil {
		return nil, fmt.Errorf("error clearing stored transactions: %w", err)
	}
	if _, err := dbTx.Exec(`DELETE FROM imports`); err != nil {
		return nil, fmt.Errorf("error clearing stored imports: %w", err)
	}

	res, err := dbTx.Exec(`INSERT INTO imports (template, realized_profit, asset_count, transaction_count) VALUES (?, ?, ?, ?)`,
		string(template), result.RealizedProfit, len(result.Assets), len(result.Transactions))
	if err != nil {
		return nil, fmt.Errorf("error inserting import row: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading import id: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (import_id, seq, asset, quantity, price, type, date, asset_type) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for seq, tx := range result.Transactions {
		if _, err := stmt.Exec(importID, seq, tx.Asset, tx.Quantity, tx.Price, tx.Type, tx.Date.Format(time.RFC3339), tx.AssetType); err != nil {
			return nil, fmt.Errorf("error inserting transaction %d: %w", seq, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing import: %w", err)
	}

	s.resultCache.Set(ckLatestParseResult, result, cache.DefaultExpiration)
	logger.L.Info("ImportCSV complete", "template", template,
		"assets", len(result.Assets), "transactions", len(result.Transactions),
		"realizedProfit", result.RealizedProfit, "duration", time.Since(start))
	return result, nil
}

// LatestResult returns the most recent import, from cache when fresh,
// otherwise rebuilt from the stored transaction sequence. A rebuilt result
// carries a fresh audit trail noting the replay; the original row-level logs
// belong to the parse invocation and are not persisted.
func (s *importServiceImpl) LatestResult() (*models.ParseResult, error) {
	if cached, found := s.resultCache.Get(ckLatestParseResult); found {
		logger.L.Debug("Cache hit for latest parse result")
		return cached.(*models.ParseResult), nil
	}
	logger.L.Info("Cache miss for latest parse result, replaying from DB")

	var importID int64
	var template string
	err := database.DB.QueryRow(`SELECT id, template FROM imports ORDER BY id DESC LIMIT 1`).Scan(&importID, &template)
	if err == sql.ErrNoRows {
		return nil, ErrNoPortfolio
	}
	if err != nil {
		return nil, fmt.Errorf("error querying latest import: %w", err)
	}

	txs, err := fetchStoredTransactions(importID)
	if err != nil {
		return nil, err
	}

	assets, realizedProfit := processors.ReplayTransactions(txs)
	logs := models.NewParsingLogs()
	logs.Setupf("Rebuilt from %d stored transactions (template %s)", len(txs), template)
	logs.Summaryf("Replay complete. Total aggregated assets: %d. Total transactions: %d. Realized profit: %.2f",
		len(assets), len(txs), realizedProfit)

	result := &models.ParseResult{
		Assets:         assets,
		Transactions:   txs,
		RealizedProfit: realizedProfit,
		Logs:           logs,
	}
	s.resultCache.Set(ckLatestParseResult, result, cache.DefaultExpiration)
	return result, nil
}

func (s *importServiceImpl) Transactions() ([]models.Transaction, error) {
	result, err := s.LatestResult()
	if err != nil {
		return nil, err
	}
	return result.Transactions, nil
}

func (s *importServiceImpl) DeleteAll() error {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("error deleting transactions: %w", err)
	}
	if _, err := dbTx.Exec(`DELETE FROM imports`); err != nil {
		return fmt.Errorf("error deleting imports: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing delete: %w", err)
	}

	s.resultCache.Delete(ckLatestParseResult)
	logger.L.Info("Deleted stored portfolio and invalidated cache")
	return nil
}

func fetchStoredTransactions(importID int64) ([]models.Transaction, error) {
	rows, err := database.DB.Query(`SELECT asset, quantity, price, type, date, asset_type FROM transactions WHERE import_id = ? ORDER BY seq ASC`, importID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for import %d: %w", importID, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var dateStr string
		if err := rows.Scan(&tx.Asset, &tx.Quantity, &tx.Price, &tx.Type, &dateStr, &tx.AssetType); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored transaction date %q: %w", dateStr, err)
		}
		tx.Date = date
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}
