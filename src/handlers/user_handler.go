package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/moneymint/backend/src/database"
	"github.com/username/moneymint/backend/src/ledger"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/utils"
)

// UserHandler creates users and serves their current balance. Account
// identity is plain records here; authentication is out of scope.
type UserHandler struct {
	store ledger.AccountStore
}

func NewUserHandler(store ledger.AccountStore) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" {
		utils.SendJSONError(w, "username and email are required", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(
		"INSERT INTO users (username, email, balance) VALUES (?, ?, '0')",
		req.Username, req.Email)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create user", "username", req.Username, "error", err)
		utils.SendJSONError(w, "Failed to create user (username and email must be unique)", http.StatusConflict)
		return
	}
	id, _ := res.LastInsertId()

	// Every user starts with a default portfolio.
	if _, err := database.DB.Exec(
		"INSERT INTO portfolios (user_id, name, is_default) VALUES (?, 'Default', 1)", id); err != nil {
		logger.FromContext(r.Context()).Error("Failed to create default portfolio", "userID", id, "error", err)
	}

	user, err := h.store.FindUser(r.Context(), id)
	if err != nil {
		utils.SendJSONError(w, "Failed to load created user", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.store.FindUser(r.Context(), id)
	if err != nil {
		status, msg := mapLedgerError(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("Failed to load user", "userID", id, "error", err)
			msg = "Failed to load user"
		}
		utils.SendJSONError(w, msg, status)
		return
	}
	utils.SendJSON(w, user, http.StatusOK)
}
