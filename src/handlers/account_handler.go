package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/tradevault/backend/src/database"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/utils"
)

type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload struct {
		AccountNumber  int64   `json:"account_number"`
		Name           string  `json:"name"`
		Balance        float64 `json:"balance"`
		Currency       string  `json:"currency"`
		Broker         string  `json:"broker"`
		TradePlatform  string  `json:"trade_platform"`
		DefaultAccount bool    `json:"default_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if payload.AccountNumber <= 0 {
		utils.SendJSONError(w, "account_number must be positive", http.StatusBadRequest)
		return
	}
	platform := models.ParseTradePlatform(payload.TradePlatform)
	if platform == models.PlatformUndefined {
		utils.SendJSONError(w, "unknown trade_platform", http.StatusBadRequest)
		return
	}

	account := &models.Account{
		UserID:         userID,
		AccountNumber:  payload.AccountNumber,
		Name:           payload.Name,
		Balance:        payload.Balance,
		Currency:       payload.Currency,
		Broker:         payload.Broker,
		TradePlatform:  platform,
		DefaultAccount: payload.DefaultAccount,
		Active:         true,
	}
	if err := account.CreateAccount(database.DB); err != nil {
		logger.L.Error("Failed to create account", "userID", userID, "accountNumber", payload.AccountNumber, "error", err)
		utils.SendJSONError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Account created", "userID", userID, "accountNumber", account.AccountNumber, "platform", string(platform))
	utils.SendJSON(w, account, http.StatusCreated)
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	accounts, err := models.GetAccountsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list accounts", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	utils.SendJSON(w, accounts, http.StatusOK)
}
