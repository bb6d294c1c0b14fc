package cmc

import "time"

// TradeWrapper is the normalized form of one raw row from a CMC Markets
// history export. Produced fresh per parsed line; it carries no identity
// beyond its fields.
type TradeWrapper struct {
	DateTime           time.Time
	Type               string
	OrderNumber        string
	RelatedOrderNumber string // set when the row closes/adjusts another order
	Product            string
	Units              float64
	Price              float64
	Amount             float64
}
