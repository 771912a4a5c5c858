// Package portfolio implements portfolio, asset and trade management scoped
// to the owning user.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
	"github.com/mdavenport/folio/internal/services/valuation"
)

// Tagged errors checked with errors.Is at the HTTP boundary.
var (
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateName  = errors.New("portfolio name already exists")
	ErrDuplicateAsset = errors.New("asset already exists in portfolio")
)

// Service implements interfaces.PortfolioService.
type Service struct {
	storage interfaces.StorageManager
	market  interfaces.MarketService
	logger  *common.Logger
}

// NewService creates a portfolio service.
func NewService(storage interfaces.StorageManager, market interfaces.MarketService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		market:  market,
		logger:  logger,
	}
}

// --- Portfolio CRUD ---

// CreatePortfolio creates an empty portfolio for the user. Names must be
// non-empty and unique within the user's account.
func (s *Service) CreatePortfolio(ctx context.Context, userID, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", ErrValidation)
	}

	if err := s.checkDuplicateName(ctx, userID, name, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.Portfolio{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		Assets:     []models.Asset{},
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("portfolio_id", p.ID).Str("name", name).Msg("Portfolio created")
	return p, nil
}

// GetPortfolio returns a single portfolio with market prices attached.
func (s *Service) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	s.enrichPrices(ctx, p)
	return p, nil
}

// ListPortfolios returns the user's portfolios, newest first, with market
// prices attached.
func (s *Service) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	portfolios, err := s.storage.PortfolioStore().ListPortfoliosByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	sort.SliceStable(portfolios, func(i, j int) bool {
		return portfolios[i].CreatedAt.After(portfolios[j].CreatedAt)
	})

	for _, p := range portfolios {
		s.enrichPrices(ctx, p)
	}
	return portfolios, nil
}

// RenamePortfolio changes a portfolio's name, enforcing uniqueness against
// the user's other portfolios.
func (s *Service) RenamePortfolio(ctx context.Context, userID, portfolioID, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", ErrValidation)
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicateName(ctx, userID, name, portfolioID); err != nil {
		return nil, err
	}

	p.Name = name
	p.ModifiedAt = time.Now()
	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.enrichPrices(ctx, p)
	return p, nil
}

// DeletePortfolio removes the portfolio and its transactions.
func (s *Service) DeletePortfolio(ctx context.Context, userID, portfolioID string) error {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return err
	}

	if err := s.storage.PortfolioStore().DeletePortfolio(ctx, portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	count, err := s.storage.TransactionStore().DeleteTransactionsByPortfolio(ctx, portfolioID)
	if err != nil {
		s.logger.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to delete portfolio transactions")
	}

	s.logger.Info().Str("user_id", userID).Str("portfolio_id", portfolioID).Int("transactions_removed", count).Msg("Portfolio deleted")
	return nil
}

// --- Assets ---

// AddAsset adds a new position. A ticker already present in the portfolio is
// a conflict; callers react to ErrDuplicateAsset by switching to the buy
// (blend) or update flow.
func (s *Service) AddAsset(ctx context.Context, userID, portfolioID string, asset models.Asset) (*models.Portfolio, error) {
	asset.TickerSymbol = normalizeTicker(asset.TickerSymbol)
	if asset.TickerSymbol == "" {
		return nil, fmt.Errorf("%w: ticker symbol is required", ErrValidation)
	}
	if asset.Quantity <= 0 || asset.AveragePrice <= 0 {
		return nil, fmt.Errorf("%w: quantity and price must be positive", ErrValidation)
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	if p.FindAsset(asset.TickerSymbol) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, asset.TickerSymbol)
	}

	p.Assets = append(p.Assets, models.Asset{
		TickerSymbol: asset.TickerSymbol,
		Quantity:     asset.Quantity,
		AveragePrice: asset.AveragePrice,
	})
	p.ModifiedAt = time.Now()

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.enrichPrices(ctx, p)
	return p, nil
}

// BuyAsset acquires quantity units at price, blending into an existing
// position via the weighted-average cost update, or opening a new position
// when the ticker is not yet held.
func (s *Service) BuyAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, price float64) (*models.Portfolio, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker symbol is required", ErrValidation)
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	idx := p.FindAsset(ticker)
	var q0, c0 float64
	if idx >= 0 {
		q0, c0 = p.Assets[idx].Quantity, p.Assets[idx].AveragePrice
	}

	newQty, newAvg, err := valuation.BlendPosition(q0, c0, quantity, price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if idx >= 0 {
		p.Assets[idx].Quantity = newQty
		p.Assets[idx].AveragePrice = newAvg
	} else {
		p.Assets = append(p.Assets, models.Asset{
			TickerSymbol: ticker,
			Quantity:     newQty,
			AveragePrice: newAvg,
		})
	}
	p.ModifiedAt = time.Now()

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.logger.Info().
		Str("portfolio_id", portfolioID).
		Str("ticker", ticker).
		Float64("quantity", newQty).
		Float64("average_price", newAvg).
		Msg("Position acquired")

	s.enrichPrices(ctx, p)
	return p, nil
}

// UpdateAsset overwrites a position's quantity and average price.
func (s *Service) UpdateAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, averagePrice float64) (*models.Portfolio, error) {
	ticker = normalizeTicker(ticker)
	if quantity <= 0 || averagePrice <= 0 {
		return nil, fmt.Errorf("%w: quantity and price must be positive", ErrValidation)
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	idx := p.FindAsset(ticker)
	if idx < 0 {
		return nil, fmt.Errorf("asset %s: %w", ticker, interfaces.ErrNotFound)
	}

	p.Assets[idx].Quantity = quantity
	p.Assets[idx].AveragePrice = averagePrice
	p.ModifiedAt = time.Now()

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.enrichPrices(ctx, p)
	return p, nil
}

// RemoveAsset deletes a position without recording a trade.
func (s *Service) RemoveAsset(ctx context.Context, userID, portfolioID, ticker string) (*models.Portfolio, error) {
	ticker = normalizeTicker(ticker)

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	idx := p.FindAsset(ticker)
	if idx < 0 {
		return nil, fmt.Errorf("asset %s: %w", ticker, interfaces.ErrNotFound)
	}

	p.Assets = append(p.Assets[:idx], p.Assets[idx+1:]...)
	p.ModifiedAt = time.Now()

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	s.enrichPrices(ctx, p)
	return p, nil
}

// SellAsset disposes of quantity units at price. The realized P&L is
// computed against the position's average cost and recorded as an immutable
// transaction. A full sell removes the asset; a partial sell decrements
// quantity and leaves average cost untouched.
func (s *Service) SellAsset(ctx context.Context, userID, portfolioID, ticker string, quantity, price float64) (*models.Transaction, error) {
	ticker = normalizeTicker(ticker)
	if price <= 0 {
		return nil, fmt.Errorf("%w: sale price must be positive", ErrValidation)
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	idx := p.FindAsset(ticker)
	if idx < 0 {
		return nil, fmt.Errorf("asset %s: %w", ticker, interfaces.ErrNotFound)
	}
	asset := &p.Assets[idx]

	if err := valuation.ValidateSellQuantity(asset.Quantity, quantity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tx := &models.Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		PortfolioID:     p.ID,
		PortfolioName:   p.Name,
		TickerSymbol:    ticker,
		TransactionType: models.TransactionSell,
		Quantity:        quantity,
		Price:           price,
		AverageCost:     asset.AveragePrice,
		RealizedPnL:     valuation.RealizedPnL(quantity, price, asset.AveragePrice),
		TransactionDate: time.Now(),
	}

	if err := s.storage.TransactionStore().SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	if quantity == asset.Quantity {
		p.Assets = append(p.Assets[:idx], p.Assets[idx+1:]...)
	} else {
		asset.Quantity -= quantity
	}
	p.ModifiedAt = time.Now()

	if err := s.storage.PortfolioStore().SavePortfolio(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save portfolio after sell: %w", err)
	}

	s.logger.Info().
		Str("portfolio_id", p.ID).
		Str("ticker", ticker).
		Float64("quantity", quantity).
		Float64("realized_pnl", tx.RealizedPnL).
		Msg("Position sold")

	return tx, nil
}

// --- Transactions ---

// ListTransactions returns all of the user's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.storage.TransactionStore().ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sortTransactions(txs)
	return txs, nil
}

// ListPortfolioTransactions returns a portfolio's transactions, newest first.
func (s *Service) ListPortfolioTransactions(ctx context.Context, userID, portfolioID string) ([]*models.Transaction, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	txs, err := s.storage.TransactionStore().ListTransactionsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sortTransactions(txs)
	return txs, nil
}

// ListSells returns the user's sell transactions, newest first.
func (s *Service) ListSells(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sells := make([]*models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.TransactionType == models.TransactionSell {
			sells = append(sells, tx)
		}
	}
	return sells, nil
}

// --- Aggregation ---

// BuildSummary derives the account-wide summary from the user's portfolios
// and sell transactions. Transaction fetch failures degrade to an empty list
// so the primary view still renders.
func (s *Service) BuildSummary(ctx context.Context, userID string) (*models.Summary, error) {
	portfolios, err := s.ListPortfolios(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.storage.TransactionStore().ListTransactionsByUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Transaction fetch failed, summary excludes realized P&L")
		transactions = nil
	}

	return valuation.BuildSummary(portfolios, transactions), nil
}

// RenderAllocationChart renders the portfolio's allocation pie chart as PNG.
func (s *Service) RenderAllocationChart(ctx context.Context, userID, portfolioID string) ([]byte, error) {
	p, err := s.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	return valuation.RenderAllocationChart(p)
}

// --- Internals ---

// ownedPortfolio loads a portfolio and verifies ownership. A portfolio owned
// by another user is reported as not found.
func (s *Service) ownedPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, interfaces.ErrNotFound)
	}
	return p, nil
}

func (s *Service) checkDuplicateName(ctx context.Context, userID, name, excludeID string) error {
	existing, err := s.storage.PortfolioStore().ListPortfoliosByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check portfolio names: %w", err)
	}
	for _, p := range existing {
		if p.ID != excludeID && strings.EqualFold(p.Name, name) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}
	return nil
}

// enrichPrices attaches current market prices and recomputes derived fields.
// Pricing is best-effort: a failed quote degrades to the stored average
// price so reads never fail on pricing.
func (s *Service) enrichPrices(ctx context.Context, p *models.Portfolio) {
	for i := range p.Assets {
		a := &p.Assets[i]
		quote, err := s.market.GetQuote(ctx, a.TickerSymbol)
		if err != nil || quote.Price <= 0 {
			a.CurrentMarketPrice = a.AveragePrice
		} else {
			a.CurrentMarketPrice = quote.Price
		}
		if a.Sector == "" {
			a.Sector = s.market.GetSector(a.TickerSymbol)
		}
		a.ComputeDerived()
	}
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func sortTransactions(txs []*models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].TransactionDate.After(txs[j].TransactionDate)
	})
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
