// Package market provides quotes with caching and a deterministic fallback
// price table for when no upstream provider is configured.
package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
)

// fallbackPrices is the deterministic price table used when the upstream
// provider is unavailable or unconfigured.
var fallbackPrices = map[string]float64{
	"AAPL":  189.30,
	"MSFT":  415.50,
	"GOOGL": 154.20,
	"AMZN":  174.45,
	"NVDA":  878.35,
	"META":  484.10,
	"TSLA":  202.64,
	"JNJ":   158.90,
	"PFE":   27.55,
	"UNH":   527.25,
	"JPM":   183.30,
	"BAC":   33.85,
	"V":     279.90,
	"PG":    158.75,
	"KO":    59.85,
	"WMT":   59.60,
	"XOM":   104.35,
	"CVX":   152.40,
	"SPY":   502.85,
	"QQQ":   434.20,
	"VTI":   249.95,
}

// sectors maps known tickers to their sector for the insight service.
var sectors = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Technology",
	"NVDA":  "Technology",
	"META":  "Technology",
	"AMZN":  "Consumer Cyclical",
	"TSLA":  "Consumer Cyclical",
	"JNJ":   "Healthcare",
	"PFE":   "Healthcare",
	"UNH":   "Healthcare",
	"JPM":   "Financial Services",
	"BAC":   "Financial Services",
	"V":     "Financial Services",
	"PG":    "Consumer Defensive",
	"KO":    "Consumer Defensive",
	"WMT":   "Consumer Defensive",
	"XOM":   "Energy",
	"CVX":   "Energy",
	"SPY":   "Diversified ETF",
	"QQQ":   "Diversified ETF",
	"VTI":   "Diversified ETF",
}

type cachedQuote struct {
	quote     *models.Quote
	expiresAt time.Time
}

// Service implements interfaces.MarketService.
type Service struct {
	client   interfaces.MarketDataClient // nil when unconfigured
	logger   *common.Logger
	quoteTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

// NewService creates a market data service. client may be nil, in which case
// every quote comes from the fallback table.
func NewService(client interfaces.MarketDataClient, quoteTTL time.Duration, logger *common.Logger) *Service {
	if quoteTTL <= 0 {
		quoteTTL = 5 * time.Minute
	}
	return &Service{
		client:   client,
		logger:   logger,
		quoteTTL: quoteTTL,
		cache:    make(map[string]cachedQuote),
	}
}

// GetQuote returns a quote for the symbol: cache first, then the upstream
// client, then the static fallback table. A fallback quote is deterministic
// and marked with Source "fallback".
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	s.mu.RLock()
	if entry, ok := s.cache[symbol]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.RUnlock()
		return entry.quote, nil
	}
	s.mu.RUnlock()

	if s.client != nil {
		quote, err := s.client.GetQuote(ctx, symbol)
		if err == nil {
			s.mu.Lock()
			s.cache[symbol] = cachedQuote{quote: quote, expiresAt: time.Now().Add(s.quoteTTL)}
			s.mu.Unlock()
			return quote, nil
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Upstream quote failed, using fallback price")
	}

	return s.fallbackQuote(symbol), nil
}

// fallbackQuote builds a quote from the static price table. Unknown symbols
// get a fixed nominal price so portfolio reads never fail on pricing.
func (s *Service) fallbackQuote(symbol string) *models.Quote {
	price, ok := fallbackPrices[symbol]
	if !ok {
		price = 100.00
	}
	return &models.Quote{
		Symbol:    symbol,
		Price:     price,
		FetchedAt: time.Now(),
		Source:    "fallback",
	}
}

// GetHistory returns the daily price series from the upstream provider.
// There is no synthetic fallback for history: without a configured provider
// the error propagates and the caller decides.
func (s *Service) GetHistory(ctx context.Context, symbol string) (*models.HistoricalData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if s.client == nil {
		return nil, &NotConfiguredError{Symbol: symbol}
	}
	return s.client.GetDailyHistory(ctx, symbol)
}

// GetSector returns the sector for a known ticker, or "Other".
func (s *Service) GetSector(symbol string) string {
	if sector, ok := sectors[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return sector
	}
	return "Other"
}

// Status reports the service configuration and cache state.
func (s *Service) Status() *models.MarketStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.MarketStatus{
		Provider:     "alphavantage",
		Configured:   s.client != nil,
		CachedQuotes: len(s.cache),
		QuoteTTL:     s.quoteTTL.String(),
	}
}

// NotConfiguredError indicates no upstream market data provider is configured.
type NotConfiguredError struct {
	Symbol string
}

func (e *NotConfiguredError) Error() string {
	return "market data provider not configured, cannot fetch history for " + e.Symbol
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
