package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/investview/backend/src/models"
)

func TestPortfolioSummary(t *testing.T) {
	result := &models.ParseResult{
		Assets: []models.Asset{
			{Asset: "RELIANCE.NS", AssetType: models.AssetTypeStock, Quantity: 11, PurchasePrice: 109.0909, CurrentPrice: 120},
			{Asset: "BTC", AssetType: models.AssetTypeCryptocurrency, Quantity: 0.5, PurchasePrice: 42000, CurrentPrice: 45000},
		},
		RealizedProfit: 200,
	}

	summary := PortfolioSummary(result)
	assert.Contains(t, summary, "RELIANCE.NS (Stock)")
	assert.Contains(t, summary, "11.0000 units")
	assert.Contains(t, summary, "BTC (Cryptocurrency)")
	assert.Contains(t, summary, "Realized profit: 200.00")
}

func TestPortfolioSummaryEmpty(t *testing.T) {
	summary := PortfolioSummary(&models.ParseResult{})
	assert.Contains(t, summary, "(none)")
	assert.Contains(t, summary, "Realized profit: 0.00")
}

func TestProvideSuggestionsWithoutClient(t *testing.T) {
	svc := NewSuggestionService(nil)
	_, err := svc.ProvideSuggestions(context.Background(), "Holdings:\n  (none)\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuggestionsUnavailable)
}
