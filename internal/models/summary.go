package models

// GainLossType values for Summary.
const (
	GainLossGain    = "gain"
	GainLossLoss    = "loss"
	GainLossNeutral = "neutral"
)

// PortfolioSummary holds per-portfolio aggregate figures used by the
// account-wide summary.
type PortfolioSummary struct {
	PortfolioID    string  `json:"portfolioId"`
	Name           string  `json:"name"`
	TotalValue     float64 `json:"totalValue"`
	TotalCost      float64 `json:"totalCost"`
	UnrealizedPnL  float64 `json:"unrealizedPnL"`
	RealizedPnL    float64 `json:"realizedPnL"`
	NumberOfAssets int     `json:"numberOfAssets"`
}

// RealizedBucket groups a portfolio's sell transactions with their running
// realized total. Transactions are ordered most recent first.
type RealizedBucket struct {
	PortfolioID   string        `json:"portfolioId"`
	PortfolioName string        `json:"portfolioName"`
	Total         float64       `json:"total"`
	Transactions  []Transaction `json:"transactions"`
}

// Summary is the account-wide dashboard payload. The headline figures are
// pre-formatted display strings; Portfolios carries the raw numbers.
type Summary struct {
	TotalValue       string `json:"totalValue"`
	TotalCost        string `json:"totalCost"`
	TotalGainLoss    string `json:"totalGainLoss"`
	GainLossPercent  string `json:"gainLossPercent"`
	GainLossType     string `json:"gainLossType"`
	NumberOfAssets   string `json:"numberOfAssets"`
	BestPerformer    string `json:"bestPerformer"`
	TotalRealizedPnL string `json:"totalRealizedPnL"`

	Portfolios []PortfolioSummary        `json:"portfolios"`
	Realized   map[string]RealizedBucket `json:"realizedByPortfolio"`
}
