package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/database"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/models"
	"github.com/username/moneymint/backend/src/utils"
)

// PortfolioHandler serves the read side of a portfolio: current holdings
// and the transaction history.
type PortfolioHandler struct{}

func NewPortfolioHandler() *PortfolioHandler {
	return &PortfolioHandler{}
}

func portfolioIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDParam(r)
	if !ok {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM portfolios WHERE id = ?)", portfolioID).Scan(&exists); err != nil || !exists {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, user_id, portfolio_id, symbol, quantity, avg_buy_price, updated_at
		FROM holdings
		WHERE portfolio_id = ?
		ORDER BY symbol ASC`, portfolioID)
	if err != nil {
		logger.L.Error("Failed to query holdings", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve holdings", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var (
			h        models.Holding
			priceStr string
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.PortfolioID, &h.Symbol, &h.Quantity, &priceStr, &h.UpdatedAt); err != nil {
			logger.L.Error("Row scan error", "error", err)
			continue
		}
		if h.AvgBuyPrice, err = decimal.NewFromString(priceStr); err != nil {
			logger.L.Error("Malformed avg_buy_price", "holdingID", h.ID, "value", priceStr)
			continue
		}
		holdings = append(holdings, h)
	}
	if err = rows.Err(); err != nil {
		utils.SendJSONError(w, "Failed to retrieve holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	utils.SendJSON(w, holdings, http.StatusOK)
}

func (h *PortfolioHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDParam(r)
	if !ok {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	var exists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM portfolios WHERE id = ?)", portfolioID).Scan(&exists); err != nil || !exists {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, user_id, portfolio_id, symbol, txn_type, quantity, price_per_unit, txn_date
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY txn_date DESC, id DESC`, portfolioID)
	if err != nil {
		logger.L.Error("Failed to query transactions", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var (
			t        models.Transaction
			priceStr string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.PortfolioID, &t.Symbol, &t.TxnType, &t.Quantity, &priceStr, &t.TxnDate); err != nil {
			logger.L.Error("Row scan error", "error", err)
			continue
		}
		if t.PricePerUnit, err = decimal.NewFromString(priceStr); err != nil {
			logger.L.Error("Malformed price_per_unit", "transactionID", t.ID, "value", priceStr)
			continue
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		utils.SendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSON(w, transactions, http.StatusOK)
}
