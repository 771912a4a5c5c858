package models

// Risk levels for DiversificationInsight.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// AssetRecommendation suggests a ticker to improve diversification.
type AssetRecommendation struct {
	TickerSymbol string `json:"tickerSymbol"`
	Name         string `json:"name"`
	Sector       string `json:"sector"`
	Reason       string `json:"reason"`
}

// DiversificationInsight is the AI/heuristic analysis of a portfolio's
// sector spread.
type DiversificationInsight struct {
	PortfolioID          string                `json:"portfolioId"`
	DiversificationScore int                   `json:"diversificationScore"`
	RiskLevel            string                `json:"riskLevel"`
	SectorAllocation     map[string]float64    `json:"sectorAllocation"`
	Insights             []string              `json:"insights"`
	Recommendations      []AssetRecommendation `json:"recommendations"`
	OverallAssessment    string                `json:"overallAssessment"`
}
