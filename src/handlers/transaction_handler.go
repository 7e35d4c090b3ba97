package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/models"
	"github.com/username/investview/backend/src/services"
	"github.com/username/investview/backend/src/utils"
)

type TransactionHandler struct {
	importService services.ImportService
}

func NewTransactionHandler(importService services.ImportService) *TransactionHandler {
	return &TransactionHandler{importService: importService}
}

// HandleGetTransactions returns the accepted transactions of the latest
// import, in file order.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	logger.L.Debug("Handling GetTransactions request")

	transactions, err := h.importService.Transactions()
	if err != nil {
		if errors.Is(err, services.ErrNoPortfolio) {
			utils.SendJSONError(w, "No portfolio has been imported yet", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving transactions: %v", err), http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transactions); err != nil {
		logger.L.Error("Error generating JSON response for transactions", "error", err)
	}
}

// HandleDeleteAllTransactions clears the stored portfolio.
func (h *TransactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	logger.L.Info("Handling DeleteAllTransactions request")

	if err := h.importService.DeleteAll(); err != nil {
		logger.L.Error("Error deleting stored portfolio", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error deleting transactions: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "All portfolio data deleted"})
}
