package models

import "time"

// Quote is a point-in-time market quote for a ticker.
type Quote struct {
	Symbol           string    `json:"symbol"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"changePercent"`
	Volume           int64     `json:"volume"`
	PreviousClose    float64   `json:"previousClose"`
	LatestTradingDay string    `json:"latestTradingDay"`
	FetchedAt        time.Time `json:"fetchedAt"`
	Source           string    `json:"source"`
}

// PricePoint is a single bar of daily historical data.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// HistoricalData is a daily price series, most recent first.
type HistoricalData struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// MarketStatus reports the market data service state.
type MarketStatus struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
	CachedQuotes int  `json:"cachedQuotes"`
	QuoteTTL   string `json:"quoteTTL"`
}
