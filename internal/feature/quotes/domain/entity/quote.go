// Package entity defines the domain models for the quotes feature.
package entity

import "github.com/shopspring/decimal"

// Quote represents a snapshot of market data for a single stock symbol.
// Quotes are fixed demo data loaded once at process start and never mutated.
type Quote struct {
	Symbol      string          // Ticker symbol in canonical uppercase (e.g., "NVDA")
	Company     string          // Company name
	Price       decimal.Decimal // Last traded price in USD
	Change      string          // Signed percent change (e.g., "+1.06%")
	MarketCap   string          // Human-readable market capitalization (e.g., "4.4T")
	PERatio     decimal.Decimal // Price/earnings ratio; zero when unknown
	Week52High  decimal.Decimal // 52-week high; zero when unknown
	Week52Low   decimal.Decimal // 52-week low; zero when unknown
	Description string          // Short company description; empty when unknown
}

// HasPERatio reports whether the quote carries a P/E ratio.
func (q Quote) HasPERatio() bool {
	return !q.PERatio.IsZero()
}

// HasWeek52Range reports whether the quote carries 52-week high/low data.
func (q Quote) HasWeek52Range() bool {
	return !q.Week52High.IsZero() && !q.Week52Low.IsZero()
}

// LookupResult is the total outcome of a symbol lookup. Absence of a symbol
// is a normal outcome, not an error.
type LookupResult struct {
	Found   bool
	Quote   Quote  // Populated only when Found is true
	Message string // Suggestion message, populated only when Found is false
}
