package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/parsers/mt4"
)

// mt4ImportService reconciles MetaTrader 4 history reports. Every report row
// is already a complete closed trade, so reconciliation is dedup plus direct
// construction.
type mt4ImportService struct {
	store TradeStore
}

func NewMT4ImportService(store TradeStore) ImportService {
	return &mt4ImportService{store: store}
}

func (s *mt4ImportService) ImportTrades(r io.Reader, _ rune, account *models.Account) error {
	if err := s.importFile(r, account); err != nil {
		logger.L.Error("mt4 import failed", "account", account.AccountNumber, "error", err)
		return fmt.Errorf("%w with reason : %v", ErrImportFailed, err)
	}
	return nil
}

func (s *mt4ImportService) importFile(r io.Reader, account *models.Account) error {
	wrappers, err := mt4.NewParser().Parse(r)
	if err != nil {
		return err
	}

	existingTrades, err := s.store.FindAllByAccount(account.ID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(existingTrades))
	for _, t := range existingTrades {
		existing[t.TradeID] = true
	}

	tradeMap := make(map[string]*models.Trade)
	for _, w := range wrappers {
		if existing[w.TicketNumber] {
			continue
		}
		switch {
		case strings.Contains(w.Type, "buy"):
			tradeMap[w.TicketNumber] = s.createNewTrade(w, models.TradeTypeBuy, account)
		case strings.Contains(w.Type, "sell"):
			tradeMap[w.TicketNumber] = s.createNewTrade(w, models.TradeTypeSell, account)
		}
	}

	trades := make([]*models.Trade, 0, len(tradeMap))
	for _, trade := range tradeMap {
		trades = append(trades, trade)
	}

	if err := s.store.SaveAllAndTouch(account, trades); err != nil {
		return err
	}

	logger.L.Info("mt4 import complete", "account", account.AccountNumber,
		"rows", len(wrappers), "trades", len(trades))
	return nil
}

func (s *mt4ImportService) createNewTrade(w mt4.TradeWrapper, tradeType models.TradeType, account *models.Account) *models.Trade {
	closeTime := w.CloseTime
	return &models.Trade{
		TradeID:        w.TicketNumber,
		TradePlatform:  models.PlatformMetaTrader4,
		Product:        w.Item,
		TradeType:      tradeType,
		TradeOpenTime:  w.OpenTime,
		TradeCloseTime: &closeTime,
		LotSize:        w.Size,
		OpenPrice:      w.OpenPrice,
		ClosePrice:     w.ClosePrice,
		NetProfit:      w.Profit,
		StopLoss:       w.StopLoss,
		TakeProfit:     w.TakeProfit,
		AccountID:      account.ID,
	}
}
