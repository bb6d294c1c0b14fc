package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Account is a trading account owned by a user. Its configured platform
// selects the import pipeline for uploaded trade history files.
type Account struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	AccountNumber   int64         `json:"account_number"`
	Name            string        `json:"name"`
	Balance         float64       `json:"balance"`
	Currency        string        `json:"currency"`
	Broker          string        `json:"broker"`
	TradePlatform   TradePlatform `json:"trade_platform"`
	DefaultAccount  bool          `json:"default_account"`
	Active          bool          `json:"active"`
	AccountOpenTime time.Time     `json:"account_open_time"`
	LastTraded      *time.Time    `json:"last_traded,omitempty"`
}

var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, user_id, account_number, name, balance, currency, broker, trade_platform, default_account, active, account_open_time, last_traded`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var platform string
	var openTime string
	var lastTraded sql.NullString
	err := row.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.Name, &a.Balance, &a.Currency,
		&a.Broker, &platform, &a.DefaultAccount, &a.Active, &openTime, &lastTraded)
	if err != nil {
		return nil, err
	}
	a.TradePlatform = ParseTradePlatform(platform)
	if a.AccountOpenTime, err = parseStoredTime(openTime); err != nil {
		return nil, fmt.Errorf("invalid account_open_time for account %d: %w", a.AccountNumber, err)
	}
	if lastTraded.Valid && lastTraded.String != "" {
		lt, err := parseStoredTime(lastTraded.String)
		if err != nil {
			return nil, fmt.Errorf("invalid last_traded for account %d: %w", a.AccountNumber, err)
		}
		a.LastTraded = &lt
	}
	return &a, nil
}

// CreateAccount inserts the account and fills in its generated id.
func (a *Account) CreateAccount(db *sql.DB) error {
	if a.AccountOpenTime.IsZero() {
		a.AccountOpenTime = time.Now().UTC()
	}
	stmt, err := db.Prepare(`INSERT INTO accounts (user_id, account_number, name, balance, currency, broker, trade_platform, default_account, active, account_open_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(a.UserID, a.AccountNumber, a.Name, a.Balance, a.Currency,
		a.Broker, string(a.TradePlatform), a.DefaultAccount, a.Active, formatStoredTime(a.AccountOpenTime))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetAccountByNumber retrieves one of the user's accounts by its account number.
func GetAccountByNumber(db *sql.DB, userID, accountNumber int64) (*Account, error) {
	row := db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND account_number = ?`, userID, accountNumber)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching account %d: %w", accountNumber, err)
	}
	return a, nil
}

// GetAccountsByUser returns all accounts for the user, default account first.
func GetAccountsByUser(db *sql.DB, userID int64) ([]*Account, error) {
	rows, err := db.Query(`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY default_account DESC, account_open_time ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// touchAccountLastTraded refreshes the account's last_traded marker inside the
// caller's transaction. Part of the import write phase.
func touchAccountLastTraded(dbTx *sql.Tx, accountID int64) error {
	_, err := dbTx.Exec(`UPDATE accounts SET last_traded = ? WHERE id = ?`, formatStoredTime(time.Now().UTC()), accountID)
	if err != nil {
		return fmt.Errorf("error touching account %d: %w", accountID, err)
	}
	return nil
}
