package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/services"
	"github.com/username/investview/backend/src/utils"
)

type MarketDataHandler struct {
	bhavcopyService services.BhavcopyService
}

func NewMarketDataHandler(bhavcopyService services.BhavcopyService) *MarketDataHandler {
	return &MarketDataHandler{bhavcopyService: bhavcopyService}
}

// HandleGetBhavcopy serves the NSE end-of-day equity records for a trading
// day. The date query parameter is YYYY-MM-DD; it defaults to yesterday.
func (h *MarketDataHandler) HandleGetBhavcopy(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC().AddDate(0, 0, -1)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid 'date' parameter %q, expected YYYY-MM-DD", dateStr), http.StatusBadRequest)
			return
		}
		date = parsed
	}

	logger.L.Info("Handling GetBhavcopy request", "date", date.Format("2006-01-02"))
	records, err := h.bhavcopyService.FetchBhavcopy(date)
	if err != nil {
		logger.L.Warn("Bhavcopy fetch failed", "date", date.Format("2006-01-02"), "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Could not fetch bhavcopy: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.L.Error("Error encoding JSON response for bhavcopy", "error", err)
	}
}
