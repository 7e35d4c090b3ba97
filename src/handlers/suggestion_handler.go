package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/services"
	"github.com/username/investview/backend/src/utils"
)

type SuggestionHandler struct {
	importService     services.ImportService
	suggestionService services.SuggestionService
}

func NewSuggestionHandler(importService services.ImportService, suggestionService services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		importService:     importService,
		suggestionService: suggestionService,
	}
}

// HandleGetSuggestions summarises the latest portfolio and asks the model
// for free-text observations about it.
func (h *SuggestionHandler) HandleGetSuggestions(w http.ResponseWriter, r *http.Request) {
	logger.L.Debug("Handling GetSuggestions request")

	result, err := h.importService.LatestResult()
	if err != nil {
		if errors.Is(err, services.ErrNoPortfolio) {
			utils.SendJSONError(w, "No portfolio has been imported yet", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving portfolio data: %v", err), http.StatusInternalServerError)
		return
	}

	summary := services.PortfolioSummary(result)
	suggestions, err := h.suggestionService.ProvideSuggestions(r.Context(), summary)
	if err != nil {
		if errors.Is(err, services.ErrSuggestionsUnavailable) {
			utils.SendJSONError(w, "Suggestion service is not configured on this server", http.StatusServiceUnavailable)
			return
		}
		logger.L.Error("Error generating suggestions", "error", err)
		utils.SendJSONError(w, "Failed to generate suggestions. Please try again later.", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"suggestions": suggestions}); err != nil {
		logger.L.Error("Error encoding JSON response for suggestions", "error", err)
	}
}
