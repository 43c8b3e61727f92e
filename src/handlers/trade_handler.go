package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/ledger"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/services"
	"github.com/username/moneymint/backend/src/utils"
)

// TradeHandler exposes the ledger's buy/sell/deposit operations over HTTP.
type TradeHandler struct {
	ledger         *ledger.Ledger
	paymentService services.PaymentService
}

func NewTradeHandler(l *ledger.Ledger, paymentService services.PaymentService) *TradeHandler {
	return &TradeHandler{
		ledger:         l,
		paymentService: paymentService,
	}
}

type buyRequest struct {
	PortfolioID int64           `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type sellRequest struct {
	PortfolioID int64  `json:"portfolio_id"`
	Symbol      string `json:"symbol"`
	Quantity    int64  `json:"quantity"`
}

type chargeRequest struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// mapLedgerError translates ledger errors to HTTP status codes. Unknown
// errors are logged by the caller and reported generically.
func mapLedgerError(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrPortfolioNotFound):
		return http.StatusNotFound, "Portfolio not found"
	case errors.Is(err, ledger.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest, "Insufficient balance"
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		return http.StatusBadRequest, "Insufficient holdings"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "Amount must be greater than 0"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be greater than 0"
	case errors.Is(err, ledger.ErrInvalidPrice):
		return http.StatusBadRequest, "Price must be greater than 0"
	default:
		return http.StatusInternalServerError, ""
	}
}

func (h *TradeHandler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ledger.Buy(r.Context(), req.PortfolioID, req.Symbol, req.Quantity, req.Price); err != nil {
		status, msg := mapLedgerError(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("Buy failed",
				"portfolioID", req.PortfolioID, "symbol", req.Symbol, "error", err)
			msg = "Server error during buy"
		}
		utils.SendJSONError(w, msg, status)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Stock purchased successfully"}, http.StatusOK)
}

func (h *TradeHandler) HandleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.ledger.Sell(r.Context(), req.PortfolioID, req.Symbol, req.Quantity)
	if err != nil {
		status, msg := mapLedgerError(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("Sell failed",
				"portfolioID", req.PortfolioID, "symbol", req.Symbol, "error", err)
			msg = "Server error during sell"
		}
		utils.SendJSONError(w, msg, status)
		return
	}

	utils.SendJSON(w, map[string]any{
		"message":         "Stock sold successfully",
		"sell_price":      result.ExecutionPrice,
		"current_balance": result.NewBalance,
	}, http.StatusOK)
}

func (h *TradeHandler) HandleCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newBalance, err := h.ledger.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		status, msg := mapLedgerError(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("Recharge failed", "userID", req.UserID, "error", err)
			msg = "Server error during recharge"
		}
		utils.SendJSONError(w, msg, status)
		return
	}

	utils.SendJSON(w, map[string]any{
		"message":     "Balance recharged successfully",
		"new_balance": newBalance,
	}, http.StatusOK)
}

// HandleCreateCheckoutSession credits the balance like HandleCharge, then
// requests a checkout session for the frontend to redirect to. The credit
// is committed before the session is requested: a session failure is
// logged, never rolled back into the trade state.
func (h *TradeHandler) HandleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newBalance, err := h.ledger.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		status, msg := mapLedgerError(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("Simulated top-up failed", "userID", req.UserID, "error", err)
			msg = "Server error during recharge"
		}
		utils.SendJSONError(w, msg, status)
		return
	}

	response := map[string]any{"new_balance": newBalance}

	session, err := h.paymentService.CreateCheckoutSession(r.Context(), req.UserID, req.Amount)
	if err != nil {
		logger.FromContext(r.Context()).Error("Checkout session creation failed after committed top-up",
			"userID", req.UserID, "error", err)
	} else {
		response["url"] = session.URL
	}

	utils.SendJSON(w, response, http.StatusOK)
}
