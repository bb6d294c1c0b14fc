package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/parsers/cmc"
)

// Event type keywords in a CMC history export. Buy/sell/promotional rows are
// substring matches; close and adjustment rows match exactly.
const (
	cmcBuySignal   = "Buy Trade"
	cmcSellSignal  = "Sell Trade"
	cmcCloseEvent  = "Close Trade"
	cmcStopLoss    = "Stop Loss"
	cmcTakeProfit  = "Take Profit"
	cmcPromoSignal = "Promotional Payment"
)

// cmcImportService reconciles CMC Markets exports. Rows describing the same
// logical trade (open, close, stop loss, take profit) are linked through a
// per-pass order-id map; nothing is persisted until the whole pass succeeds.
type cmcImportService struct {
	store TradeStore
}

func NewCMCImportService(store TradeStore) ImportService {
	return &cmcImportService{store: store}
}

func (s *cmcImportService) ImportTrades(r io.Reader, delimiter rune, account *models.Account) error {
	if err := s.importFile(r, delimiter, account); err != nil {
		logger.L.Error("cmc import failed", "account", account.AccountNumber, "error", err)
		return fmt.Errorf("%w with reason : %v", ErrImportFailed, err)
	}
	return nil
}

func (s *cmcImportService) importFile(r io.Reader, delimiter rune, account *models.Account) error {
	wrappers, err := cmc.NewParser(delimiter).Parse(r)
	if err != nil {
		return err
	}

	existing, err := s.existingTradeIDs(account)
	if err != nil {
		return err
	}

	// Partition before linking: opens must be materialized before any close
	// or adjustment looks for its target, regardless of file order.
	var buys, sells, closes, stopLosses, takeProfits, promos []cmc.TradeWrapper
	for _, w := range wrappers {
		if existing[w.OrderNumber] {
			continue
		}
		switch {
		case strings.Contains(w.Type, cmcBuySignal):
			buys = append(buys, w)
		case strings.Contains(w.Type, cmcSellSignal):
			sells = append(sells, w)
		case w.Type == cmcCloseEvent:
			closes = append(closes, w)
		case w.Type == cmcStopLoss:
			stopLosses = append(stopLosses, w)
		case w.Type == cmcTakeProfit:
			takeProfits = append(takeProfits, w)
		case strings.Contains(w.Type, cmcPromoSignal):
			promos = append(promos, w)
		}
	}

	tradeMap := make(map[string]*models.Trade)
	for _, w := range buys {
		tradeMap[w.OrderNumber] = s.createNewTrade(w, models.TradeTypeBuy, account)
	}
	for _, w := range sells {
		tradeMap[w.OrderNumber] = s.createNewTrade(w, models.TradeTypeSell, account)
	}

	dropped := 0
	// A close event references the order it closes through its related order
	// number; stop-loss and take-profit events reuse the opener's own id.
	for _, w := range closes {
		if trade, ok := tradeMap[w.RelatedOrderNumber]; ok {
			s.closeTrade(w, trade)
		} else {
			dropped++
		}
	}
	for _, w := range stopLosses {
		if trade, ok := tradeMap[w.OrderNumber]; ok {
			s.closeTrade(w, trade)
		} else {
			dropped++
		}
	}
	for _, w := range takeProfits {
		if trade, ok := tradeMap[w.OrderNumber]; ok {
			s.closeTrade(w, trade)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		// Usually a close delivered in a later export than its opener; the
		// opener's id is already marked existing so the adjustment has no
		// target in this pass.
		logger.L.Warn("cmc import: dropped adjustment events without an open trade in this pass",
			"account", account.AccountNumber, "dropped", dropped)
	}

	for _, w := range promos {
		tradeMap[w.OrderNumber] = s.createPromotionalPayment(w, account)
	}

	trades := make([]*models.Trade, 0, len(tradeMap))
	for _, trade := range tradeMap {
		trades = append(trades, trade)
	}

	if err := s.store.SaveAllAndTouch(account, trades); err != nil {
		return err
	}

	logger.L.Info("cmc import complete", "account", account.AccountNumber,
		"rows", len(wrappers), "trades", len(trades))
	return nil
}

func (s *cmcImportService) existingTradeIDs(account *models.Account) (map[string]bool, error) {
	trades, err := s.store.FindAllByAccount(account.ID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(trades))
	for _, t := range trades {
		existing[t.TradeID] = true
	}
	return existing, nil
}

func (s *cmcImportService) createNewTrade(w cmc.TradeWrapper, tradeType models.TradeType, account *models.Account) *models.Trade {
	return &models.Trade{
		TradeID:       w.OrderNumber,
		TradePlatform: models.PlatformCMCMarkets,
		Product:       w.Product,
		TradeType:     tradeType,
		TradeOpenTime: w.DateTime,
		LotSize:       w.Units,
		OpenPrice:     w.Price,
		AccountID:     account.ID,
	}
}

func (s *cmcImportService) createPromotionalPayment(w cmc.TradeWrapper, account *models.Account) *models.Trade {
	closeTime := w.DateTime
	return &models.Trade{
		TradeID:        w.OrderNumber,
		TradePlatform:  models.PlatformCMCMarkets,
		TradeType:      models.TradeTypePromotionalPayment,
		TradeOpenTime:  w.DateTime,
		TradeCloseTime: &closeTime,
		NetProfit:      w.Amount,
		AccountID:      account.ID,
	}
}

// closeTrade applies a close/stop-loss/take-profit event to a trade opened in
// this pass. Only close fields change; the trade's type never does.
func (s *cmcImportService) closeTrade(w cmc.TradeWrapper, trade *models.Trade) {
	closeTime := w.DateTime
	trade.TradeCloseTime = &closeTime
	trade.ClosePrice = w.Price
	trade.NetProfit = w.Amount
}
