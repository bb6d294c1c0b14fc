package services

import (
	"fmt"
	"io"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

// cmcDelimiter is the field delimiter CMC Markets uses in its exports.
const cmcDelimiter = ','

// GenericImportService routes an uploaded file to the import service matching
// the account's configured platform and folds every failure into a plain
// description string: empty means success, anything else is shown to the user
// verbatim.
//
// Concurrent imports against the same account are not serialized here; two
// simultaneous passes can race on the existing-trade read. The unique
// (trade_id, account_id) index keeps the store consistent, but callers that
// need stronger guarantees must add their own per-account exclusion.
type GenericImportService struct {
	cmcService ImportService
	mt4Service ImportService
}

func NewGenericImportService(cmcService, mt4Service ImportService) *GenericImportService {
	return &GenericImportService{
		cmcService: cmcService,
		mt4Service: mt4Service,
	}
}

// ImportTrades runs one reconciliation pass for the account. A nil reader is
// an input-contract violation, rejected before any platform dispatch.
func (s *GenericImportService) ImportTrades(r io.Reader, account *models.Account) string {
	if r == nil {
		return "import stream cannot be nil"
	}

	switch account.TradePlatform {
	case models.PlatformCMCMarkets:
		if err := s.cmcService.ImportTrades(r, cmcDelimiter, account); err != nil {
			return err.Error()
		}
		return ""
	case models.PlatformMetaTrader4:
		if err := s.mt4Service.ImportTrades(r, 0, account); err != nil {
			return err.Error()
		}
		return ""
	}

	logger.L.Warn("import requested for unsupported platform",
		"account", account.AccountNumber, "platform", string(account.TradePlatform))
	return fmt.Sprintf("Trading platform %s is not currently supported", string(account.TradePlatform))
}
