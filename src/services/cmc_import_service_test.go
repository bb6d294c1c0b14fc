package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

// fakeTradeStore records saved trades in memory so reconciliation can be
// exercised without a database.
type fakeTradeStore struct {
	trades    []*models.Trade
	saveCalls int
	findErr   error
	saveErr   error
}

func (f *fakeTradeStore) FindAllByAccount(accountID int64) ([]*models.Trade, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*models.Trade
	for _, t := range f.trades {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTradeStore) SaveAllAndTouch(account *models.Account, trades []*models.Trade) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, t := range trades {
		duplicate := false
		for _, existing := range f.trades {
			if existing.TradeID == t.TradeID && existing.AccountID == t.AccountID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			f.trades = append(f.trades, t)
		}
	}
	return nil
}

func (f *fakeTradeStore) byTradeID(tradeID string) *models.Trade {
	for _, t := range f.trades {
		if t.TradeID == tradeID {
			return t
		}
	}
	return nil
}

func cmcAccount() *models.Account {
	return &models.Account{
		ID:            1,
		UserID:        1,
		AccountNumber: 100200,
		TradePlatform: models.PlatformCMCMarkets,
	}
}

const cmcTestHeader = "Time (UTC+0),Type,Order number,Status,Related order,Product,Units,Price,C1,C2,C3,C4,C5,C6,Amount\n"

// cmcHistory mirrors a real export fragment: a sell opened and closed within a
// minute, a buy closed four minutes after opening, and one promotional payment.
const cmcHistory = cmcTestHeader +
	"24/08/2022 11:13,Sell Trade,O5-77-5H7MXX,Filled,-,Germany 40 - Cash,0.75,12935.17,,,,,,,-\n" +
	"24/08/2022 11:14,Close Trade,O5-77-5H7NYY,Filled,O5-77-5H7MXX,Germany 40 - Cash,0.75,12943.36,,,,,,,-8.00\n" +
	"24/08/2022 11:14,Promotional Payment,1109841303,Completed,-,,,,,,,,,,8.00\n" +
	"24/08/2022 11:23,Buy Trade,O5-77-5H7P05,Filled,-,Germany 40 - Cash,0.80,12960.00,,,,,,,-\n" +
	"24/08/2022 11:27,Close Trade,O5-77-5H7QZZ,Filled,O5-77-5H7P05,Germany 40 - Cash,0.80,12972.38,,,,,,,12.78\n"

func TestCMCImportLinksOpensAndCloses(t *testing.T) {
	store := &fakeTradeStore{}
	svc := NewCMCImportService(store)

	err := svc.ImportTrades(strings.NewReader(cmcHistory), ',', cmcAccount())
	require.NoError(t, err)
	require.Len(t, store.trades, 3)

	sell := store.byTradeID("O5-77-5H7MXX")
	require.NotNil(t, sell)
	assert.Equal(t, models.TradeTypeSell, sell.TradeType)
	assert.Equal(t, "Germany 40 - Cash", sell.Product)
	assert.Equal(t, 0.75, sell.LotSize)
	assert.Equal(t, 12935.17, sell.OpenPrice)
	assert.Equal(t, 12943.36, sell.ClosePrice)
	assert.Equal(t, -8.00, sell.NetProfit)
	assert.Equal(t, time.Date(2022, 8, 24, 11, 13, 0, 0, time.UTC), sell.TradeOpenTime)
	require.NotNil(t, sell.TradeCloseTime)
	assert.Equal(t, time.Date(2022, 8, 24, 11, 14, 0, 0, time.UTC), *sell.TradeCloseTime)

	buy := store.byTradeID("O5-77-5H7P05")
	require.NotNil(t, buy)
	assert.Equal(t, models.TradeTypeBuy, buy.TradeType)
	assert.Equal(t, 0.80, buy.LotSize)
	assert.Equal(t, 12960.00, buy.OpenPrice)
	assert.Equal(t, 12972.38, buy.ClosePrice)
	assert.Equal(t, 12.78, buy.NetProfit)
}

func TestCMCImportPromotionalPayment(t *testing.T) {
	store := &fakeTradeStore{}
	svc := NewCMCImportService(store)

	err := svc.ImportTrades(strings.NewReader(cmcHistory), ',', cmcAccount())
	require.NoError(t, err)

	promo := store.byTradeID("1109841303")
	require.NotNil(t, promo)
	assert.Equal(t, models.TradeTypePromotionalPayment, promo.TradeType)
	assert.Equal(t, 8.00, promo.NetProfit)
	assert.Equal(t, 0.0, promo.LotSize)
	require.NotNil(t, promo.TradeCloseTime)
	assert.Equal(t, promo.TradeOpenTime, *promo.TradeCloseTime)
}

func TestCMCImportStopLossAndTakeProfitLinkByOwnOrder(t *testing.T) {
	input := cmcTestHeader +
		"24/08/2022 11:13,Sell Trade,O-SL-1,Filled,-,Gold,1.0,1800.0,,,,,,,-\n" +
		"24/08/2022 11:30,Stop Loss,O-SL-1,Filled,-,Gold,1.0,1795.0,,,,,,,-5.00\n" +
		"24/08/2022 11:13,Buy Trade,O-TP-1,Filled,-,Gold,1.0,1800.0,,,,,,,-\n" +
		"24/08/2022 11:40,Take Profit,O-TP-1,Filled,-,Gold,1.0,1810.0,,,,,,,10.00\n"

	store := &fakeTradeStore{}
	err := NewCMCImportService(store).ImportTrades(strings.NewReader(input), ',', cmcAccount())
	require.NoError(t, err)
	require.Len(t, store.trades, 2)

	sl := store.byTradeID("O-SL-1")
	require.NotNil(t, sl)
	assert.Equal(t, models.TradeTypeSell, sl.TradeType)
	assert.Equal(t, -5.00, sl.NetProfit)
	assert.Equal(t, 1795.0, sl.ClosePrice)

	tp := store.byTradeID("O-TP-1")
	require.NotNil(t, tp)
	assert.Equal(t, models.TradeTypeBuy, tp.TradeType)
	assert.Equal(t, 10.00, tp.NetProfit)
}

func TestCMCImportDropsUnlinkedAdjustments(t *testing.T) {
	input := cmcTestHeader +
		"24/08/2022 11:14,Close Trade,O-CLOSE-1,Filled,O-MISSING,Gold,1.0,1805.0,,,,,,,5.00\n" +
		"24/08/2022 11:15,Stop Loss,O-MISSING-2,Filled,-,Gold,1.0,1795.0,,,,,,,-5.00\n"

	store := &fakeTradeStore{}
	err := NewCMCImportService(store).ImportTrades(strings.NewReader(input), ',', cmcAccount())
	require.NoError(t, err)
	assert.Empty(t, store.trades)
	assert.Equal(t, 1, store.saveCalls)
}

func TestCMCImportIsIdempotent(t *testing.T) {
	store := &fakeTradeStore{}
	svc := NewCMCImportService(store)

	require.NoError(t, svc.ImportTrades(strings.NewReader(cmcHistory), ',', cmcAccount()))
	first := len(store.trades)

	require.NoError(t, svc.ImportTrades(strings.NewReader(cmcHistory), ',', cmcAccount()))
	assert.Equal(t, first, len(store.trades))
}

func TestCMCImportToleratesMalformedRows(t *testing.T) {
	input := cmcTestHeader +
		"garbage line without enough columns\n" +
		"24/08/2022 11:23,Buy Trade,O1,Filled,-,Gold,1.0,1800.0,,,,,,,-\n"

	store := &fakeTradeStore{}
	err := NewCMCImportService(store).ImportTrades(strings.NewReader(input), ',', cmcAccount())
	require.NoError(t, err)
	assert.Len(t, store.trades, 1)
}

func TestCMCImportWrapsStoreFailure(t *testing.T) {
	store := &fakeTradeStore{findErr: assert.AnError}
	err := NewCMCImportService(store).ImportTrades(strings.NewReader(cmcHistory), ',', cmcAccount())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImportFailed)
}
