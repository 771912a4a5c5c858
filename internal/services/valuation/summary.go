package valuation

import (
	"sort"
	"strconv"

	"github.com/mdavenport/folio/internal/models"
)

// RealizedByPortfolio groups sell transactions by portfolio and sums their
// realized P&L. Each bucket's transactions are ordered most recent first;
// the sort is stable so equal timestamps keep their original relative order.
// The input slice is never modified.
func RealizedByPortfolio(transactions []*models.Transaction) map[string]models.RealizedBucket {
	buckets := make(map[string]models.RealizedBucket)

	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		b := buckets[tx.PortfolioID]
		b.PortfolioID = tx.PortfolioID
		if b.PortfolioName == "" {
			b.PortfolioName = tx.PortfolioName
		}
		b.Total += tx.RealizedPnL
		b.Transactions = append(b.Transactions, *tx)
		buckets[tx.PortfolioID] = b
	}

	for id, b := range buckets {
		sort.SliceStable(b.Transactions, func(i, j int) bool {
			return b.Transactions[i].TransactionDate.After(b.Transactions[j].TransactionDate)
		})
		buckets[id] = b
	}

	return buckets
}

// BuildSummary derives the account-wide dashboard summary from portfolios and
// sell transactions. It is a pure function: calling it twice on the same
// inputs yields identical output, and the inputs are never mutated. Empty
// inputs produce a neutral summary rather than an error.
func BuildSummary(portfolios []*models.Portfolio, transactions []*models.Transaction) *models.Summary {
	realized := RealizedByPortfolio(transactions)

	var (
		totalValue    float64
		totalCost     float64
		totalRealized float64
		assetCount    int

		bestTicker  string
		bestPercent float64
		haveBest    bool
	)

	summaries := make([]models.PortfolioSummary, 0, len(portfolios))

	for _, p := range portfolios {
		if p == nil {
			continue
		}
		var value, cost float64
		for i := range p.Assets {
			a := &p.Assets[i]
			assetValue := a.Quantity * a.CurrentMarketPrice
			assetCost := a.Quantity * a.AveragePrice
			value += assetValue
			cost += assetCost
			assetCount++

			pct := 0.0
			if assetCost != 0 {
				pct = (assetValue - assetCost) / assetCost * 100
			}
			// Strict > keeps the first asset encountered on ties.
			if !haveBest || pct > bestPercent {
				haveBest = true
				bestPercent = pct
				bestTicker = a.TickerSymbol
			}
		}

		realizedTotal := realized[p.ID].Total
		totalValue += value
		totalCost += cost
		totalRealized += realizedTotal

		summaries = append(summaries, models.PortfolioSummary{
			PortfolioID:    p.ID,
			Name:           p.Name,
			TotalValue:     value,
			TotalCost:      cost,
			UnrealizedPnL:  value - cost,
			RealizedPnL:    realizedTotal,
			NumberOfAssets: len(p.Assets),
		})
	}

	// Realized P&L from portfolios that no longer exist still counts toward
	// the account total.
	for id, b := range realized {
		found := false
		for _, p := range portfolios {
			if p != nil && p.ID == id {
				found = true
				break
			}
		}
		if !found {
			totalRealized += b.Total
		}
	}

	totalGainLoss := (totalValue - totalCost) + totalRealized

	percent := 0.0
	if totalCost != 0 {
		percent = totalGainLoss / totalCost * 100
	}

	glType := models.GainLossNeutral
	switch {
	case totalGainLoss > 0:
		glType = models.GainLossGain
	case totalGainLoss < 0:
		glType = models.GainLossLoss
	}

	best := "N/A"
	if haveBest {
		best = bestTicker
	}

	return &models.Summary{
		TotalValue:       FormatMoney(totalValue),
		TotalCost:        FormatMoney(totalCost),
		TotalGainLoss:    FormatMoney(totalGainLoss),
		GainLossPercent:  FormatPercent(percent),
		GainLossType:     glType,
		NumberOfAssets:   strconv.Itoa(assetCount),
		BestPerformer:    best,
		TotalRealizedPnL: FormatMoney(totalRealized),
		Portfolios:       summaries,
		Realized:         realized,
	}
}
