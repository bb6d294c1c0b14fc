package services

import (
	"database/sql"

	"github.com/username/tradevault/backend/src/models"
)

// sqlTradeStore backs TradeStore with the sqlite models layer.
type sqlTradeStore struct {
	db *sql.DB
}

func NewSQLTradeStore(db *sql.DB) TradeStore {
	return &sqlTradeStore{db: db}
}

func (s *sqlTradeStore) FindAllByAccount(accountID int64) ([]*models.Trade, error) {
	return models.FindTradesByAccount(s.db, accountID)
}

func (s *sqlTradeStore) SaveAllAndTouch(account *models.Account, trades []*models.Trade) error {
	return models.SaveTradesAndTouchAccount(s.db, account, trades)
}
