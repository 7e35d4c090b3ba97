package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/models"
	"github.com/username/investview/backend/src/services"
	"github.com/username/investview/backend/src/utils"
)

type PortfolioHandler struct {
	importService services.ImportService
	priceService  services.PriceService
}

func NewPortfolioHandler(importService services.ImportService, priceService services.PriceService) *PortfolioHandler {
	return &PortfolioHandler{
		importService: importService,
		priceService:  priceService,
	}
}

// HandleGetPortfolio returns the full latest parse result (assets,
// transactions, realized profit, audit logs) with ETag support.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	logger.L.Debug("Handling GetPortfolio request with ETag support")

	result, err := h.importService.LatestResult()
	if err != nil {
		if errors.Is(err, services.ErrNoPortfolio) {
			utils.SendJSONError(w, "No portfolio has been imported yet", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving portfolio data from service", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving portfolio data: %v", err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for portfolio data", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Info("ETag match for portfolio data", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		if clientETag != "" {
			logger.L.Debug("ETag mismatch", "clientETags", clientETag, "serverETag", quotedETag)
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error or empty ETag")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error generating JSON response for portfolio data", "error", err)
	}
}

// HandleGetHoldings joins the open positions with live prices. Tickers the
// price feed cannot resolve fall back to their average purchase price so the
// response is always complete.
func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	logger.L.Debug("Handling GetHoldings request")

	result, err := h.importService.LatestResult()
	if err != nil {
		if errors.Is(err, services.ErrNoPortfolio) {
			utils.SendJSONError(w, "No portfolio has been imported yet", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving holdings from service", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}

	tickers := make([]string, 0, len(result.Assets))
	for _, asset := range result.Assets {
		tickers = append(tickers, asset.Asset)
	}

	prices, err := h.priceService.GetCurrentPrices(tickers)
	if err != nil {
		// Holdings with purchase data are still useful without live prices.
		logger.L.Warn("Could not fetch some or all current prices", "error", err)
	}

	type HoldingWithValue struct {
		models.Asset
		MarketValue float64 `json:"market_value"`
		Status      string  `json:"status"`
	}

	response := []HoldingWithValue{}
	for _, asset := range result.Assets {
		currentPrice := asset.PurchasePrice
		status := "UNAVAILABLE"

		if priceInfo, found := prices[asset.Asset]; found && priceInfo.Status == "OK" {
			status = "OK"
			currentPrice = priceInfo.Price
		} else if asset.CurrentPrice > 0 {
			// The default template carries its own current price column.
			currentPrice = asset.CurrentPrice
		}

		enriched := asset
		enriched.CurrentPrice = currentPrice
		response = append(response, HoldingWithValue{
			Asset:       enriched,
			MarketValue: utils.RoundFloat(currentPrice*asset.Quantity, 2),
			Status:      status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error generating JSON response for holdings", "error", err)
	}
}
