package services

import (
	"errors"
	"io"

	"github.com/username/tradevault/backend/src/models"
)

// ErrImportFailed wraps every pass-level failure surfaced by an import
// service. Handlers match it with errors.Is.
var ErrImportFailed = errors.New("the import process failed")

// TradeStore is the persistence surface the import core needs: one read to
// learn which trade identifiers already exist for an account, and one bulk
// write at the end of a successful pass.
type TradeStore interface {
	FindAllByAccount(accountID int64) ([]*models.Trade, error)
	SaveAllAndTouch(account *models.Account, trades []*models.Trade) error
}

// ImportService reconciles one uploaded trade history file into canonical
// trades for the account. The delimiter only matters for delimited-text
// platforms; markup-based services ignore it.
type ImportService interface {
	ImportTrades(r io.Reader, delimiter rune, account *models.Account) error
}
