// Package domain holds the exchange-quote shape the micro-arbitrage
// detector compares across venues; the Opportunity it produces lives in
// business/opportunity/domain.
package domain

import "time"

// ExchangeQuote is one venue's current best bid/ask for a symbol.
type ExchangeQuote struct {
	Exchange  string
	Symbol    string
	Bid       float64
	Ask       float64
	FeeBps    float64 // taker fee, in basis points
	Timestamp time.Time
}
