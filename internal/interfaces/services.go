package interfaces

import (
	"context"

	"github.com/mdavenport/folio/internal/models"
)

// PortfolioService manages portfolios, assets and trades for a user.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID, name string) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)
	RenamePortfolio(ctx context.Context, userID, portfolioID, name string) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, userID, portfolioID string) error

	AddAsset(ctx context.Context, userID, portfolioID string, asset models.Asset) (*models.Portfolio, error)
	BuyAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, price float64) (*models.Portfolio, error)
	UpdateAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, averagePrice float64) (*models.Portfolio, error)
	RemoveAsset(ctx context.Context, userID, portfolioID, ticker string) (*models.Portfolio, error)
	SellAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, price float64) (*models.Transaction, error)

	ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error)
	ListPortfolioTransactions(ctx context.Context, userID, portfolioID string) ([]*models.Transaction, error)
	ListSells(ctx context.Context, userID string) ([]*models.Transaction, error)

	BuildSummary(ctx context.Context, userID string) (*models.Summary, error)
	RenderAllocationChart(ctx context.Context, userID, portfolioID string) ([]byte, error)
}

// MarketService provides quotes with caching and deterministic fallbacks.
type MarketService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetHistory(ctx context.Context, symbol string) (*models.HistoricalData, error)
	GetSector(symbol string) string
	Status() *models.MarketStatus
}

// InsightService analyzes portfolio diversification.
type InsightService interface {
	Analyze(ctx context.Context, portfolio *models.Portfolio) (*models.DiversificationInsight, error)
}
