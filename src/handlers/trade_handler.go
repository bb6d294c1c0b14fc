package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/username/tradevault/backend/src/database"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/services"
	"github.com/username/tradevault/backend/src/utils"
)

type TradeHandler struct {
	tradeService *services.TradeService
}

func NewTradeHandler(tradeService *services.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

func (h *TradeHandler) accountFromRequest(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return nil, false
	}

	accountNumber, err := strconv.ParseInt(r.PathValue("accountNumber"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid account number", http.StatusBadRequest)
		return nil, false
	}

	account, err := models.GetAccountByNumber(database.DB, userID, accountNumber)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("account %d not found", accountNumber), http.StatusNotFound)
			return nil, false
		}
		logger.L.Error("Failed to load account", "userID", userID, "accountNumber", accountNumber, "error", err)
		utils.SendJSONError(w, "Failed to load account", http.StatusInternalServerError)
		return nil, false
	}
	return account, true
}

// HandleListTrades returns the account's trades. Optional query parameters:
// type=BUY|SELL|PROMOTIONAL_PAYMENT, start/end (RFC 3339) with page/pageSize.
func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	if typeParam := q.Get("type"); typeParam != "" {
		tradeType := models.TradeType(typeParam)
		switch tradeType {
		case models.TradeTypeBuy, models.TradeTypeSell, models.TradeTypePromotionalPayment:
		default:
			utils.SendJSONError(w, fmt.Sprintf("unknown trade type %q", typeParam), http.StatusBadRequest)
			return
		}
		trades, err := h.tradeService.FindAllByType(account.ID, tradeType)
		if err != nil {
			logger.L.Error("Failed to list trades by type", "accountID", account.ID, "type", typeParam, "error", err)
			utils.SendJSONError(w, "Failed to list trades", http.StatusInternalServerError)
			return
		}
		utils.SendJSON(w, nonNilTrades(trades), http.StatusOK)
		return
	}

	if startParam := q.Get("start"); startParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			utils.SendJSONError(w, "invalid start time, expected RFC 3339", http.StatusBadRequest)
			return
		}
		end := time.Now().UTC()
		if endParam := q.Get("end"); endParam != "" {
			if end, err = time.Parse(time.RFC3339, endParam); err != nil {
				utils.SendJSONError(w, "invalid end time, expected RFC 3339", http.StatusBadRequest)
				return
			}
		}
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("pageSize"))

		trades, err := h.tradeService.FindAllWithinTimespan(account.ID, start, end, page, pageSize)
		if err != nil {
			logger.L.Error("Failed to list trades within timespan", "accountID", account.ID, "error", err)
			utils.SendJSONError(w, "Failed to list trades", http.StatusInternalServerError)
			return
		}
		utils.SendJSON(w, nonNilTrades(trades), http.StatusOK)
		return
	}

	trades, err := h.tradeService.FindAllByAccount(account.ID)
	if err != nil {
		logger.L.Error("Failed to list trades", "accountID", account.ID, "error", err)
		utils.SendJSONError(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, nonNilTrades(trades), http.StatusOK)
}

// HandleGetTrade returns a single trade by its platform trade identifier.
func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountFromRequest(w, r)
	if !ok {
		return
	}

	tradeID := r.PathValue("tradeId")
	if tradeID == "" {
		utils.SendJSONError(w, "trade id is required", http.StatusBadRequest)
		return
	}

	trade, err := h.tradeService.FindByTradeID(account.ID, tradeID)
	if err != nil {
		logger.L.Error("Failed to fetch trade", "accountID", account.ID, "tradeID", tradeID, "error", err)
		utils.SendJSONError(w, "Failed to fetch trade", http.StatusInternalServerError)
		return
	}
	if trade == nil {
		utils.SendJSONError(w, fmt.Sprintf("trade %s not found", tradeID), http.StatusNotFound)
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func nonNilTrades(trades []*models.Trade) []*models.Trade {
	if trades == nil {
		return []*models.Trade{}
	}
	return trades
}
