package handlers

import (
	"net/http"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/services"
	"github.com/username/tradevault/backend/src/utils"
)

type NewsHandler struct {
	newsService services.NewsService
}

func NewNewsHandler(newsService services.NewsService) *NewsHandler {
	return &NewsHandler{
		newsService: newsService,
	}
}

// HandleGetMarketNews returns this week's economic calendar grouped by day.
func (h *NewsHandler) HandleGetMarketNews(w http.ResponseWriter, r *http.Request) {
	days, err := h.newsService.GetMarketNews()
	if err != nil {
		logger.L.Error("Failed to fetch market news", "error", err)
		utils.SendJSONError(w, "Failed to fetch market news", http.StatusBadGateway)
		return
	}
	if days == nil {
		days = []services.MarketNewsDay{}
	}
	utils.SendJSON(w, days, http.StatusOK)
}
