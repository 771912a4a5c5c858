package models

import "time"

// Transaction types.
const (
	TransactionSell = "SELL"
)

// Transaction is an immutable record of a completed trade. RealizedPnL is
// computed at sell time as (sale price - average cost) * quantity and never
// recomputed afterwards.
type Transaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	PortfolioID     string    `json:"portfolioId"`
	PortfolioName   string    `json:"portfolioName"`
	TickerSymbol    string    `json:"tickerSymbol"`
	TransactionType string    `json:"transactionType"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	AverageCost     float64   `json:"averageCost"`
	RealizedPnL     float64   `json:"realizedPnL"`
	TransactionDate time.Time `json:"transactionDate"`
}
