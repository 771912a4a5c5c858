// Package app wires configuration, storage, clients and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mdavenport/folio/internal/clients/alphavantage"
	"github.com/mdavenport/folio/internal/clients/gemini"
	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/services/insight"
	"github.com/mdavenport/folio/internal/services/market"
	"github.com/mdavenport/folio/internal/services/portfolio"
	storagesurreal "github.com/mdavenport/folio/internal/storage/surrealdb"
)

// App holds all initialized services and clients. It is the shared core
// used by cmd/folio-server and the integration tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketClient     interfaces.MarketDataClient
	GeminiClient     interfaces.GeminiClient
	MarketService    interfaces.MarketService
	PortfolioService interfaces.PortfolioService
	InsightService   interfaces.InsightService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, FOLIO_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storagesurreal.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()

	// Resolve API keys
	avKey, err := common.ResolveAPIKey("alphavantage_api_key", config.Clients.AlphaVantage.APIKey)
	if err != nil {
		logger.Warn().Msg("Alpha Vantage API key not configured - quotes fall back to static prices")
	}

	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - insight narratives use heuristics only")
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		StartupTime: startupStart,
	}

	// Initialize API clients
	if avKey != "" {
		avClient := alphavantage.NewClient(avKey,
			alphavantage.WithLogger(logger),
			alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
			alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
			alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		)
		a.MarketClient = avClient
	}

	if geminiKey != "" {
		geminiClient, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			a.GeminiClient = geminiClient
		}
	}

	// Initialize services
	marketService := market.NewService(a.MarketClient, config.Market.GetQuoteTTL(), logger)
	portfolioService := portfolio.NewService(storageManager, marketService, logger)
	insightService := insight.NewService(marketService, a.GeminiClient, logger)

	a.MarketService = marketService
	a.PortfolioService = portfolioService
	a.InsightService = insightService

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.GeminiClient != nil {
		a.GeminiClient.Close()
		a.GeminiClient = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
