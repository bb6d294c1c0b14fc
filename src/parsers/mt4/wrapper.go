package mt4

import "time"

// TradeWrapper is the normalized form of one row in a MetaTrader 4 trade
// history report. Each row already describes a complete closed trade, so no
// cross-row linking is needed downstream.
type TradeWrapper struct {
	TicketNumber string
	OpenTime     time.Time
	CloseTime    time.Time
	Type         string // raw direction, "buy" or "sell"
	Size         float64
	Item         string
	OpenPrice    float64
	StopLoss     float64
	TakeProfit   float64
	ClosePrice   float64
	Profit       float64
}
