package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/moneymint/backend/src/database"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/models"
	"github.com/username/moneymint/backend/src/utils"
)

type PortfolioManagerHandler struct{}

func NewPortfolioManagerHandler() *PortfolioManagerHandler {
	return &PortfolioManagerHandler{}
}

const MaxPortfoliosPerUser = 5

func (h *PortfolioManagerHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "user_id query parameter required", http.StatusBadRequest)
		return
	}
	rows, err := database.DB.Query("SELECT id, user_id, name, description, is_default, created_at FROM portfolios WHERE user_id = ? ORDER BY is_default DESC, name ASC", userID)
	if err != nil {
		logger.L.Error("Failed to list portfolios", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolios", http.StatusInternalServerError)
		return
	}
	defer rows.Close()
	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsDefault, &p.CreatedAt); err != nil {
			logger.L.Error("Row scan error", "error", err)
			continue
		}
		portfolios = append(portfolios, p)
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}
	utils.SendJSON(w, portfolios, http.StatusOK)
}

func (h *PortfolioManagerHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64  `json:"user_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		utils.SendJSONError(w, "Portfolio name is required", http.StatusBadRequest)
		return
	}

	var userExists bool
	if err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", req.UserID).Scan(&userExists); err != nil || !userExists {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	var currentCount int
	err := database.DB.QueryRow("SELECT COUNT(*) FROM portfolios WHERE user_id = ?", req.UserID).Scan(&currentCount)
	if err != nil {
		logger.L.Error("Failed to count existing portfolios", "userID", req.UserID, "error", err)
		utils.SendJSONError(w, "Failed to check portfolio limit", http.StatusInternalServerError)
		return
	}

	if currentCount >= MaxPortfoliosPerUser {
		limitStr := strconv.Itoa(MaxPortfoliosPerUser)
		errMsg := "Portfolio limit reached (" + limitStr + ")"
		logger.L.Warn(errMsg, "userID", req.UserID, "currentCount", currentCount)
		utils.SendJSONError(w, errMsg, http.StatusForbidden)
		return
	}

	res, err := database.DB.Exec("INSERT INTO portfolios (user_id, name, description) VALUES (?, ?, ?)", req.UserID, req.Name, req.Description)
	if err != nil {
		logger.L.Error("Failed to create portfolio", "userID", req.UserID, "error", err)
		utils.SendJSONError(w, "Failed to create portfolio (Name must be unique)", http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()
	utils.SendJSON(w, map[string]interface{}{"id": id, "message": "Portfolio created"}, http.StatusCreated)
}

func (h *PortfolioManagerHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	var isDefault bool
	err := database.DB.QueryRow("SELECT is_default FROM portfolios WHERE id = ?", portfolioID).Scan(&isDefault)
	if err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	if isDefault {
		utils.SendJSONError(w, "Cannot delete the default portfolio", http.StatusBadRequest)
		return
	}
	tx, err := database.DB.Begin()
	if err != nil {
		utils.SendJSONError(w, "DB Error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()
	// Explicitly delete children (Safety measure)
	_, _ = tx.Exec("DELETE FROM holdings WHERE portfolio_id = ?", portfolioID)
	_, _ = tx.Exec("DELETE FROM transactions WHERE portfolio_id = ?", portfolioID)
	_, err = tx.Exec("DELETE FROM portfolios WHERE id = ?", portfolioID)
	if err != nil {
		utils.SendJSONError(w, "Failed to delete portfolio", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		utils.SendJSONError(w, "Commit failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
