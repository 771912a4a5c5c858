package server

import (
	"errors"
	"net/http"

	"github.com/mdavenport/folio/internal/clients/alphavantage"
	"github.com/mdavenport/folio/internal/services/market"
)

// handleMarketQuote handles GET /api/market/quote/{symbol}.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	symbol := PathParam(r, "/api/market/quote/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	quote, err := s.app.MarketService.GetQuote(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "failed to fetch quote: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleMarketHistory handles GET /api/market/history/{symbol}.
// History has no fallback: an unconfigured provider is reported as 503.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	symbol := PathParam(r, "/api/market/history/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	history, err := s.app.MarketService.GetHistory(r.Context(), symbol)
	if err != nil {
		var notConfigured *market.NotConfiguredError
		if errors.As(err, &notConfigured) {
			WriteError(w, http.StatusServiceUnavailable, notConfigured.Error())
			return
		}
		var apiErr *alphavantage.APIError
		if errors.As(err, &apiErr) {
			WriteError(w, http.StatusBadGateway, apiErr.Error())
			return
		}
		WriteError(w, http.StatusBadGateway, "failed to fetch history: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

// handleMarketStatus handles GET /api/market/status.
func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.MarketService.Status())
}
