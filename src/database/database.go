package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/tradevault/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Creating database schema if missing", "databasePath", databasePath)
	} else {
		stdlog.Println("Creating database schema if missing:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		account_number INTEGER NOT NULL,
		name TEXT NOT NULL,
		balance REAL DEFAULT 0,
		currency TEXT,
		broker TEXT,
		trade_platform TEXT NOT NULL,
		default_account BOOLEAN DEFAULT FALSE,
		active BOOLEAN DEFAULT TRUE,
		account_open_time TEXT NOT NULL,
		last_traded TEXT,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, account_number)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		product TEXT,
		trade_platform TEXT NOT NULL,
		trade_type TEXT NOT NULL,
		trade_open_time TEXT NOT NULL,
		trade_close_time TEXT,
		lot_size REAL DEFAULT 0,
		open_price REAL DEFAULT 0,
		close_price REAL DEFAULT 0,
		net_profit REAL DEFAULT 0,
		stop_loss REAL DEFAULT 0,
		take_profit REAL DEFAULT 0,
		account_id INTEGER NOT NULL,
		FOREIGN KEY(account_id) REFERENCES accounts(id),
		UNIQUE(trade_id, account_id)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_account_open_time ON trades(account_id, trade_open_time);
	`

	_, err = db.Exec(createTableStatement)
	if err != nil {
		stdlog.Fatalf("failed to create database schema: %v", err)
	}
}
