package interfaces

import (
	"context"

	"github.com/mdavenport/folio/internal/models"
)

// MarketDataClient fetches quotes and daily history from an upstream provider.
type MarketDataClient interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetDailyHistory(ctx context.Context, symbol string) (*models.HistoricalData, error)
}

// GeminiClient generates AI content from prompts.
type GeminiClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}
