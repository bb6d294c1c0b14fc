package models

// TradeType classifies a trade at creation time. It is assigned once from the
// opening event and never changed by later adjustments.
type TradeType string

const (
	TradeTypeBuy                TradeType = "BUY"
	TradeTypeSell               TradeType = "SELL"
	TradeTypePromotionalPayment TradeType = "PROMOTIONAL_PAYMENT"
)

// TradePlatform identifies the broker platform an account is configured for.
// The set is closed; the import router switches over it.
type TradePlatform string

const (
	PlatformCMCMarkets  TradePlatform = "CMC_MARKETS"
	PlatformMetaTrader4 TradePlatform = "METATRADER4"
	PlatformUndefined   TradePlatform = "N/A"
)

// Label returns the human-readable platform name.
func (p TradePlatform) Label() string {
	switch p {
	case PlatformCMCMarkets:
		return "CMC Markets"
	case PlatformMetaTrader4:
		return "MetaTrader 4"
	default:
		return "N/A"
	}
}

// Formats returns the upload file extensions accepted for the platform.
// Checked at the upload boundary, never by the import core.
func (p TradePlatform) Formats() []string {
	switch p {
	case PlatformCMCMarkets:
		return []string{".csv"}
	case PlatformMetaTrader4:
		return []string{".html", ".htm"}
	default:
		return nil
	}
}

// ParseTradePlatform maps a stored platform code back to its enum value.
func ParseTradePlatform(code string) TradePlatform {
	switch code {
	case string(PlatformCMCMarkets):
		return PlatformCMCMarkets
	case string(PlatformMetaTrader4):
		return PlatformMetaTrader4
	default:
		return PlatformUndefined
	}
}
