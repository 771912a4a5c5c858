package models

import "time"

// Asset is a single holding within a portfolio. The derived fields
// (CurrentMarketValue, GainLoss, GainLossPercentage) are computed from the
// stored fields via ComputeDerived before the asset is returned to clients.
type Asset struct {
	TickerSymbol       string  `json:"tickerSymbol"`
	Quantity           float64 `json:"quantity"`
	AveragePrice       float64 `json:"averagePrice"`
	CurrentMarketPrice float64 `json:"currentMarketPrice"`
	Sector             string  `json:"sector,omitempty"`

	CurrentMarketValue float64 `json:"currentMarketValue"`
	GainLoss           float64 `json:"gainLoss"`
	GainLossPercentage float64 `json:"gainLossPercentage"`
}

// ComputeDerived recalculates market value and gain/loss from the stored
// quantity, average price and current market price. A zero cost basis yields
// a 0 percentage rather than a division by zero.
func (a *Asset) ComputeDerived() {
	a.CurrentMarketValue = a.Quantity * a.CurrentMarketPrice
	cost := a.Quantity * a.AveragePrice
	a.GainLoss = a.CurrentMarketValue - cost
	if cost != 0 {
		a.GainLossPercentage = a.GainLoss / cost * 100
	} else {
		a.GainLossPercentage = 0
	}
}

// CostBasis returns quantity times average price.
func (a *Asset) CostBasis() float64 {
	return a.Quantity * a.AveragePrice
}

// Portfolio is a named collection of assets owned by a user.
type Portfolio struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Assets     []Asset   `json:"assets"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// PortfolioTotals holds aggregate figures for a single portfolio.
type PortfolioTotals struct {
	TotalValue    float64 `json:"totalValue"`
	TotalCost     float64 `json:"totalCost"`
	UnrealizedPnL float64 `json:"unrealizedPnL"`
}

// ComputeTotals sums market value and cost basis across the portfolio's assets.
// Assumes ComputeDerived has been applied to each asset.
func (p *Portfolio) ComputeTotals() PortfolioTotals {
	var t PortfolioTotals
	for i := range p.Assets {
		t.TotalValue += p.Assets[i].CurrentMarketValue
		t.TotalCost += p.Assets[i].CostBasis()
	}
	t.UnrealizedPnL = t.TotalValue - t.TotalCost
	return t
}

// FindAsset returns the index of the asset with the given ticker, or -1.
func (p *Portfolio) FindAsset(ticker string) int {
	for i := range p.Assets {
		if p.Assets[i].TickerSymbol == ticker {
			return i
		}
	}
	return -1
}
