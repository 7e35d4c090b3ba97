package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/investview/backend/src/database"
	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/parsers"
)

func newTestImportService(t *testing.T) ImportService {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	return NewImportService(cache.New(5*time.Minute, 10*time.Minute))
}

const testGrowwCSV = `Stock name,Type,Quantity,Price,Execution date and time,Order status
RELIANCE,BUY,10,1000,02-01-2024 10:30 AM,EXECUTED
RELIANCE,SELL,4,600,03-01-2024 11:00 AM,EXECUTED
RELIANCE,BUY,5,600,04-01-2024 9:15 AM,EXECUTED
`

func TestImportCSVPersistsAndCaches(t *testing.T) {
	svc := newTestImportService(t)

	result, err := svc.ImportCSV(strings.NewReader(testGrowwCSV), parsers.TemplateGroww, nil)
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "RELIANCE.NS", result.Assets[0].Asset)
	assert.InDelta(t, 11.0, result.Assets[0].Quantity, 1e-9)
	assert.InDelta(t, 200.0, result.RealizedProfit, 1e-9)

	latest, err := svc.LatestResult()
	require.NoError(t, err)
	assert.Same(t, result, latest, "fresh import should be served from cache")

	txs, err := svc.Transactions()
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestLatestResultReplaysFromDatabase(t *testing.T) {
	svc := newTestImportService(t)

	original, err := svc.ImportCSV(strings.NewReader(testGrowwCSV), parsers.TemplateGroww, nil)
	require.NoError(t, err)

	// Simulate a restart by dropping the in-memory cache.
	svc.(*importServiceImpl).resultCache.Flush()

	rebuilt, err := svc.LatestResult()
	require.NoError(t, err)
	require.Len(t, rebuilt.Assets, 1)
	assert.Equal(t, original.Assets[0].Asset, rebuilt.Assets[0].Asset)
	assert.Equal(t, original.Assets[0].Quantity, rebuilt.Assets[0].Quantity)
	assert.Equal(t, original.Assets[0].PurchasePrice, rebuilt.Assets[0].PurchasePrice)
	assert.Equal(t, original.RealizedProfit, rebuilt.RealizedProfit)
	require.Len(t, rebuilt.Transactions, 3)
	assert.Equal(t, original.Transactions[1].Price, rebuilt.Transactions[1].Price)
	assert.True(t, original.Transactions[0].Date.Equal(rebuilt.Transactions[0].Date))
}

func TestImportCSVReplacesPreviousImport(t *testing.T) {
	svc := newTestImportService(t)

	_, err := svc.ImportCSV(strings.NewReader(testGrowwCSV), parsers.TemplateGroww, nil)
	require.NoError(t, err)

	second := `Stock name,Type,Quantity,Price,Execution date and time,Order status
TCS,BUY,2,8000,05-01-2024 10:00 AM,EXECUTED
`
	result, err := svc.ImportCSV(strings.NewReader(second), parsers.TemplateGroww, nil)
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "TCS.NS", result.Assets[0].Asset)

	svc.(*importServiceImpl).resultCache.Flush()
	txs, err := svc.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "TCS.NS", txs[0].Asset)
}

func TestImportCSVStructuralFailure(t *testing.T) {
	svc := newTestImportService(t)

	_, err := svc.ImportCSV(strings.NewReader(""), parsers.TemplateGroww, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingFailed)

	// A failed import must not leave partial state behind.
	_, err = svc.LatestResult()
	assert.ErrorIs(t, err, ErrNoPortfolio)
}

func TestDeleteAllClearsPortfolio(t *testing.T) {
	svc := newTestImportService(t)

	_, err := svc.ImportCSV(strings.NewReader(testGrowwCSV), parsers.TemplateGroww, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAll())

	_, err = svc.LatestResult()
	assert.ErrorIs(t, err, ErrNoPortfolio)
	_, err = svc.Transactions()
	assert.ErrorIs(t, err, ErrNoPortfolio)
}
