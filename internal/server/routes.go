package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/mdavenport/folio/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/refresh", s.handleAuthRefresh)
	mux.HandleFunc("/api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("/api/auth/me", s.handleAuthMe)

	// Portfolios
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)
	mux.HandleFunc("/api/portfolios", s.handlePortfolioList)

	// Transactions and summary
	mux.HandleFunc("/api/transactions/sells", s.handleTransactionSells)
	mux.HandleFunc("/api/transactions", s.handleTransactionList)
	mux.HandleFunc("/api/summary", s.handleSummary)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
	mux.HandleFunc("/api/market/history/", s.handleMarketHistory)
	mux.HandleFunc("/api/market/status", s.handleMarketStatus)
}

// routePortfolios dispatches /api/portfolios/{id}/* to the appropriate handler.
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/portfolios/")
	if path == "" {
		s.handlePortfolioList(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	portfolioID := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "":
		s.handlePortfolioGet(w, r, portfolioID)
	case "assets":
		s.handleAssetAdd(w, r, portfolioID)
	case "transactions":
		s.handlePortfolioTransactions(w, r, portfolioID)
	case "insights":
		s.handlePortfolioInsights(w, r, portfolioID)
	case "chart":
		s.handlePortfolioChart(w, r, portfolioID)
	default:
		if strings.HasPrefix(subpath, "assets/") {
			s.routeAssets(w, r, portfolioID, strings.TrimPrefix(subpath, "assets/"))
			return
		}
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeAssets dispatches /api/portfolios/{id}/assets/{ticker}[/buy|/sell].
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request, portfolioID, subpath string) {
	switch {
	case strings.HasSuffix(subpath, "/buy"):
		ticker := strings.TrimSuffix(subpath, "/buy")
		s.handleAssetBuy(w, r, portfolioID, ticker)
	case strings.HasSuffix(subpath, "/sell"):
		ticker := strings.TrimSuffix(subpath, "/sell")
		s.handleAssetSell(w, r, portfolioID, ticker)
	case subpath != "" && !strings.Contains(subpath, "/"):
		s.handleAssetItem(w, r, portfolioID, subpath)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":             s.app.Config.Environment,
		"storage_address":         s.app.Config.Storage.Address,
		"storage_namespace":       s.app.Config.Storage.Namespace,
		"storage_database":        s.app.Config.Storage.Database,
		"logging_level":           s.app.Config.Logging.Level,
		"alphavantage_configured": s.app.MarketClient != nil,
		"gemini_configured":       s.app.GeminiClient != nil,
	})
}
