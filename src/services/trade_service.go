package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

const (
	ckAccountTrades = "trades_account_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// TradeService serves the read side of the trade surface. Full account trade
// lists are cached and invalidated whenever an import lands.
type TradeService struct {
	db         *sql.DB
	tradeCache *cache.Cache
}

func NewTradeService(db *sql.DB, tradeCache *cache.Cache) *TradeService {
	return &TradeService{db: db, tradeCache: tradeCache}
}

// FindAllByAccount returns every trade for the account, cached.
func (s *TradeService) FindAllByAccount(accountID int64) ([]*models.Trade, error) {
	cacheKey := fmt.Sprintf(ckAccountTrades, accountID)
	if cached, found := s.tradeCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for account trades", "accountID", accountID)
		return cached.([]*models.Trade), nil
	}

	trades, err := models.FindTradesByAccount(s.db, accountID)
	if err != nil {
		return nil, err
	}
	s.tradeCache.Set(cacheKey, trades, DefaultCacheExpiration)
	return trades, nil
}

// FindByTradeID returns the trade with the given platform identifier, or nil.
func (s *TradeService) FindByTradeID(accountID int64, tradeID string) (*models.Trade, error) {
	return models.FindTradeByTradeID(s.db, accountID, tradeID)
}

// FindAllByType returns the account's trades of one type.
func (s *TradeService) FindAllByType(accountID int64, tradeType models.TradeType) ([]*models.Trade, error) {
	return models.FindTradesByType(s.db, accountID, tradeType)
}

// FindAllWithinTimespan returns trades opened within [start, end), optionally
// paged.
func (s *TradeService) FindAllWithinTimespan(accountID int64, start, end time.Time, page, pageSize int) ([]*models.Trade, error) {
	return models.FindTradesWithinTimespan(s.db, accountID, start, end, page, pageSize)
}

// InvalidateAccountCache drops the cached trade list after an import.
func (s *TradeService) InvalidateAccountCache(accountID int64) {
	s.tradeCache.Delete(fmt.Sprintf(ckAccountTrades, accountID))
	logger.L.Info("Invalidated trade cache for account", "accountID", accountID)
}
