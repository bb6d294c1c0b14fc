package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Trade is the persisted, broker-agnostic representation of one position's
// full lifecycle. (trade_id, account_id) is unique within the store.
type Trade struct {
	ID             int64         `json:"id,omitempty"`
	TradeID        string        `json:"trade_id"`
	Product        string        `json:"product"`
	TradePlatform  TradePlatform `json:"trade_platform"`
	TradeType      TradeType     `json:"trade_type"`
	TradeOpenTime  time.Time     `json:"trade_open_time"`
	TradeCloseTime *time.Time    `json:"trade_close_time,omitempty"`
	LotSize        float64       `json:"lot_size"`
	OpenPrice      float64       `json:"open_price"`
	ClosePrice     float64       `json:"close_price"`
	NetProfit      float64       `json:"net_profit"`
	StopLoss       float64       `json:"stop_loss"`
	TakeProfit     float64       `json:"take_profit"`
	AccountID      int64         `json:"account_id"`
}

const tradeColumns = `id, trade_id, product, trade_platform, trade_type, trade_open_time, trade_close_time, lot_size, open_price, close_price, net_profit, stop_loss, take_profit, account_id`

func scanTrade(row interface{ Scan(...any) error }) (*Trade, error) {
	var t Trade
	var platform, tradeType string
	var openTime string
	var closeTime sql.NullString
	err := row.Scan(&t.ID, &t.TradeID, &t.Product, &platform, &tradeType, &openTime, &closeTime,
		&t.LotSize, &t.OpenPrice, &t.ClosePrice, &t.NetProfit, &t.StopLoss, &t.TakeProfit, &t.AccountID)
	if err != nil {
		return nil, err
	}
	t.TradePlatform = ParseTradePlatform(platform)
	t.TradeType = TradeType(tradeType)
	if t.TradeOpenTime, err = parseStoredTime(openTime); err != nil {
		return nil, fmt.Errorf("invalid trade_open_time for trade %s: %w", t.TradeID, err)
	}
	if closeTime.Valid && closeTime.String != "" {
		ct, err := parseStoredTime(closeTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid trade_close_time for trade %s: %w", t.TradeID, err)
		}
		t.TradeCloseTime = &ct
	}
	return &t, nil
}

const storedTimeFormat = time.RFC3339

func parseStoredTime(s string) (time.Time, error) {
	return time.Parse(storedTimeFormat, s)
}

func formatStoredTime(t time.Time) string {
	return t.Format(storedTimeFormat)
}

// FindTradesByAccount returns every trade belonging to the given account,
// ordered by open time.
func FindTradesByAccount(db *sql.DB, accountID int64) ([]*Trade, error) {
	rows, err := db.Query(`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? ORDER BY trade_open_time ASC, id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying trades for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning trade row for account %d: %w", accountID, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows for account %d: %w", accountID, err)
	}
	return trades, nil
}

// FindTradeByTradeID looks up a single trade by its platform identifier.
func FindTradeByTradeID(db *sql.DB, accountID int64, tradeID string) (*Trade, error) {
	row := db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? AND trade_id = ?`, accountID, tradeID)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching trade %s for account %d: %w", tradeID, accountID, err)
	}
	return t, nil
}

// FindTradesByType returns all trades of one type for the account.
func FindTradesByType(db *sql.DB, accountID int64, tradeType TradeType) ([]*Trade, error) {
	rows, err := db.Query(`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? AND trade_type = ? ORDER BY trade_open_time ASC, id ASC`, accountID, string(tradeType))
	if err != nil {
		return nil, fmt.Errorf("error querying %s trades for account %d: %w", tradeType, accountID, err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// FindTradesWithinTimespan returns trades opened in [start, end), ordered by
// open time. page is zero-based; pageSize <= 0 disables paging.
func FindTradesWithinTimespan(db *sql.DB, accountID int64, start, end time.Time, page, pageSize int) ([]*Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE account_id = ? AND trade_open_time >= ? AND trade_open_time < ? ORDER BY trade_open_time ASC, id ASC`
	args := []any{accountID, formatStoredTime(start), formatStoredTime(end)}
	if pageSize > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, pageSize, page*pageSize)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying trades within timespan for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveTradesAndTouchAccount persists a reconciliation pass: every trade is
// inserted and the account's last_traded marker refreshed inside one database
// transaction, so either the whole pass lands or none of it does. Rows that
// hit the (trade_id, account_id) unique index are skipped rather than failing
// the pass; the dedup read should already have filtered them.
func SaveTradesAndTouchAccount(db *sql.DB, account *Account, trades []*Trade) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning trade save transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO trades (trade_id, product, trade_platform, trade_type, trade_open_time, trade_close_time, lot_size, open_price, close_price, net_profit, stop_loss, take_profit, account_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing trade insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		var closeTime any
		if t.TradeCloseTime != nil {
			closeTime = formatStoredTime(*t.TradeCloseTime)
		}
		_, err := stmt.Exec(t.TradeID, t.Product, string(t.TradePlatform), string(t.TradeType),
			formatStoredTime(t.TradeOpenTime), closeTime,
			t.LotSize, t.OpenPrice, t.ClosePrice, t.NetProfit, t.StopLoss, t.TakeProfit, account.ID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				continue
			}
			return fmt.Errorf("error inserting trade %s: %w", t.TradeID, err)
		}
	}

	if err := touchAccountLastTraded(dbTx, account.ID); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing trade save transaction: %w", err)
	}
	return nil
}
