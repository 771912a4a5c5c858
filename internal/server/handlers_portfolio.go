package server

import (
	"errors"
	"net/http"

	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
	"github.com/mdavenport/folio/internal/services/portfolio"
)

// writeServiceError maps portfolio service errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, interfaces.ErrNotFound):
		WriteError(w, http.StatusNotFound, "portfolio not found")
	case errors.Is(err, portfolio.ErrDuplicateName):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, portfolio.ErrDuplicateAsset):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "conflict")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// handlePortfolioList handles GET /api/portfolios and POST /api/portfolios.
func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		portfolios, err := s.app.PortfolioService.ListPortfolios(r.Context(), uc.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if portfolios == nil {
			portfolios = []*models.Portfolio{}
		}
		WriteJSON(w, http.StatusOK, portfolios)

	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		created, err := s.app.PortfolioService.CreatePortfolio(r.Context(), uc.UserID, req.Name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePortfolioGet handles GET/PUT/DELETE /api/portfolios/{id}.
func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request, portfolioID string) {
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.app.PortfolioService.GetPortfolio(r.Context(), uc.UserID, portfolioID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var req struct {
			Name string `json:"name"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		p, err := s.app.PortfolioService.RenamePortfolio(r.Context(), uc.UserID, portfolioID, req.Name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := s.app.PortfolioService.DeletePortfolio(r.Context(), uc.UserID, portfolioID); err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleAssetAdd handles POST /api/portfolios/{id}/assets.
func (s *Server) handleAssetAdd(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	var req struct {
		TickerSymbol string  `json:"tickerSymbol"`
		Quantity     float64 `json:"quantity"`
		AveragePrice float64 `json:"averagePrice"`
		Sector       string  `json:"sector"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	asset := models.Asset{
		TickerSymbol: req.TickerSymbol,
		Quantity:     req.Quantity,
		AveragePrice: req.AveragePrice,
		Sector:       req.Sector,
	}
	p, err := s.app.PortfolioService.AddAsset(r.Context(), uc.UserID, portfolioID, asset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// handleAssetItem handles PUT/DELETE /api/portfolios/{id}/assets/{ticker}.
func (s *Server) handleAssetItem(w http.ResponseWriter, r *http.Request, portfolioID, ticker string) {
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req struct {
			Quantity     float64 `json:"quantity"`
			AveragePrice float64 `json:"averagePrice"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		p, err := s.app.PortfolioService.UpdateAsset(r.Context(), uc.UserID, portfolioID, ticker, req.Quantity, req.AveragePrice)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		p, err := s.app.PortfolioService.RemoveAsset(r.Context(), uc.UserID, portfolioID, ticker)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// handleAssetBuy handles POST /api/portfolios/{id}/assets/{ticker}/buy.
// Buying into an existing position blends the average cost.
func (s *Server) handleAssetBuy(w http.ResponseWriter, r *http.Request, portfolioID, ticker string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	var req struct {
		Quantity float64 `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	p, err := s.app.PortfolioService.BuyAsset(r.Context(), uc.UserID, portfolioID, ticker, req.Quantity, req.Price)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handleAssetSell handles POST /api/portfolios/{id}/assets/{ticker}/sell.
// Returns the recorded sell transaction including realized P&L.
func (s *Server) handleAssetSell(w http.ResponseWriter, r *http.Request, portfolioID, ticker string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	var req struct {
		Quantity float64 `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	tx, err := s.app.PortfolioService.SellAsset(r.Context(), uc.UserID, portfolioID, ticker, req.Quantity, req.Price)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tx)
}

// handlePortfolioTransactions handles GET /api/portfolios/{id}/transactions.
func (s *Server) handlePortfolioTransactions(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	txs, err := s.app.PortfolioService.ListPortfolioTransactions(r.Context(), uc.UserID, portfolioID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, txs)
}

// handlePortfolioInsights handles GET /api/portfolios/{id}/insights.
func (s *Server) handlePortfolioInsights(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	p, err := s.app.PortfolioService.GetPortfolio(r.Context(), uc.UserID, portfolioID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	insight, err := s.app.InsightService.Analyze(r.Context(), p)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Insight analysis failed")
		WriteError(w, http.StatusInternalServerError, "failed to analyze portfolio")
		return
	}
	WriteJSON(w, http.StatusOK, insight)
}

// handlePortfolioChart handles GET /api/portfolios/{id}/chart — PNG allocation pie.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	png, err := s.app.PortfolioService.RenderAllocationChart(r.Context(), uc.UserID, portfolioID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleTransactionList handles GET /api/transactions.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	txs, err := s.app.PortfolioService.ListTransactions(r.Context(), uc.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, txs)
}

// handleTransactionSells handles GET /api/transactions/sells.
func (s *Server) handleTransactionSells(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	txs, err := s.app.PortfolioService.ListSells(r.Context(), uc.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, txs)
}

// handleSummary handles GET /api/summary — aggregate across all portfolios.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	summary, err := s.app.PortfolioService.BuildSummary(r.Context(), uc.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
