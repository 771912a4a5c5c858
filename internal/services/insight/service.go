// Package insight computes diversification analysis for a portfolio from its
// sector allocation, with an optional AI-written narrative.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
)

const (
	holdingsBonusPerAsset = 2
	holdingsBonusCap      = 20
	maxRecommendations    = 3

	concentrationLimit = 60.0 // single sector share forcing HIGH risk
	techHeavyLimit     = 50.0
	dominantLimit      = 70.0
)

// starterRecommendations is returned for portfolios with no holdings.
var starterRecommendations = []models.AssetRecommendation{
	{TickerSymbol: "SPY", Name: "SPDR S&P 500 ETF", Sector: "Diversified ETF", Reason: "Broad market exposure is a solid foundation for a new portfolio"},
	{TickerSymbol: "QQQ", Name: "Invesco QQQ Trust", Sector: "Diversified ETF", Reason: "Adds large-cap growth exposure"},
	{TickerSymbol: "VTI", Name: "Vanguard Total Stock Market ETF", Sector: "Diversified ETF", Reason: "Total-market coverage in a single holding"},
}

// Service implements interfaces.InsightService.
type Service struct {
	market interfaces.MarketService
	gemini interfaces.GeminiClient // nil when no API key is configured
	logger *common.Logger
}

// NewService creates an insight service. gemini may be nil; the heuristic
// assessment text is used when it is absent or fails.
func NewService(market interfaces.MarketService, gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{
		market: market,
		gemini: gemini,
		logger: logger,
	}
}

// Analyze computes the diversification insight for a portfolio.
func (s *Service) Analyze(ctx context.Context, portfolio *models.Portfolio) (*models.DiversificationInsight, error) {
	if len(portfolio.Assets) == 0 {
		return s.emptyPortfolioInsight(portfolio), nil
	}

	allocation := s.sectorAllocation(portfolio)
	score := diversificationScore(allocation, len(portfolio.Assets))
	risk := riskLevel(allocation, score)

	insight := &models.DiversificationInsight{
		PortfolioID:          portfolio.ID,
		DiversificationScore: score,
		RiskLevel:            risk,
		SectorAllocation:     allocation,
		Insights:             buildInsights(allocation, len(portfolio.Assets)),
		Recommendations:      buildRecommendations(allocation),
		OverallAssessment:    heuristicAssessment(score, risk),
	}

	s.applyNarrative(ctx, portfolio, insight)

	return insight, nil
}

// sectorAllocation computes each sector's share of the portfolio's market
// value as a percentage.
func (s *Service) sectorAllocation(portfolio *models.Portfolio) map[string]float64 {
	values := make(map[string]float64)
	var total float64
	for i := range portfolio.Assets {
		a := &portfolio.Assets[i]
		sector := a.Sector
		if sector == "" {
			sector = s.market.GetSector(a.TickerSymbol)
		}
		v := a.Quantity * a.CurrentMarketPrice
		if v <= 0 {
			v = a.Quantity * a.AveragePrice
		}
		values[sector] += v
		total += v
	}

	allocation := make(map[string]float64, len(values))
	if total <= 0 {
		return allocation
	}
	for sector, v := range values {
		allocation[sector] = v / total * 100
	}
	return allocation
}

// diversificationScore combines an inverse Herfindahl-Hirschman index over
// the sector allocation with a small bonus for holding count, capped at 100.
func diversificationScore(allocation map[string]float64, holdings int) int {
	var hhi float64
	for _, pct := range allocation {
		share := pct / 100
		hhi += share * share
	}

	score := int((1-hhi)*100) + min(holdings*holdingsBonusPerAsset, holdingsBonusCap)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func riskLevel(allocation map[string]float64, score int) string {
	for _, pct := range allocation {
		if pct > concentrationLimit {
			return models.RiskHigh
		}
	}
	if score < 40 {
		return models.RiskHigh
	}
	if score >= 70 {
		return models.RiskLow
	}
	return models.RiskModerate
}

// sortedSectors returns sector names ordered by descending share, for
// deterministic insight and recommendation output.
func sortedSectors(allocation map[string]float64) []string {
	names := make([]string, 0, len(allocation))
	for name := range allocation {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if allocation[names[i]] != allocation[names[j]] {
			return allocation[names[i]] > allocation[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func buildInsights(allocation map[string]float64, holdings int) []string {
	var insights []string

	sectors := sortedSectors(allocation)
	if len(sectors) > 0 {
		top := sectors[0]
		insights = append(insights, fmt.Sprintf("Your largest allocation is %s at %.1f%% of portfolio value", top, allocation[top]))
		if allocation[top] > concentrationLimit {
			insights = append(insights, fmt.Sprintf("Over %.0f%% of your portfolio is concentrated in %s, which amplifies sector-specific risk", concentrationLimit, top))
		}
	}

	insights = append(insights, fmt.Sprintf("You hold %d asset(s) across %d sector(s)", holdings, len(allocation)))

	if holdings < 5 {
		insights = append(insights, "Portfolios with fewer than 5 holdings tend to carry elevated idiosyncratic risk")
	}

	return insights
}

func buildRecommendations(allocation map[string]float64) []models.AssetRecommendation {
	var recs []models.AssetRecommendation

	addIfMissing := func(sector string, rec models.AssetRecommendation) {
		if _, ok := allocation[sector]; !ok {
			recs = append(recs, rec)
		}
	}

	addIfMissing("Healthcare", models.AssetRecommendation{
		TickerSymbol: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare",
		Reason: "Adds healthcare exposure, a defensive sector missing from your portfolio",
	})
	addIfMissing("Financial Services", models.AssetRecommendation{
		TickerSymbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial Services",
		Reason: "Adds financials exposure missing from your portfolio",
	})
	addIfMissing("Consumer Defensive", models.AssetRecommendation{
		TickerSymbol: "PG", Name: "Procter & Gamble", Sector: "Consumer Defensive",
		Reason: "Adds consumer staples, which tend to hold value in downturns",
	})

	if allocation["Technology"] > techHeavyLimit {
		recs = append(recs, models.AssetRecommendation{
			TickerSymbol: "VTI", Name: "Vanguard Total Stock Market ETF", Sector: "Diversified ETF",
			Reason: fmt.Sprintf("Your technology allocation is %.1f%%; a total-market fund dilutes the concentration", allocation["Technology"]),
		})
	}

	for _, sector := range sortedSectors(allocation) {
		if allocation[sector] > dominantLimit {
			recs = append(recs, models.AssetRecommendation{
				TickerSymbol: "SPY", Name: "SPDR S&P 500 ETF", Sector: "Diversified ETF",
				Reason: fmt.Sprintf("%s dominates your portfolio at %.1f%%; broad index exposure reduces single-sector risk", sector, allocation[sector]),
			})
			break
		}
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func heuristicAssessment(score int, risk string) string {
	switch risk {
	case models.RiskLow:
		return fmt.Sprintf("Your portfolio is well diversified (score %d/100). Maintain your current allocation discipline and rebalance periodically.", score)
	case models.RiskHigh:
		return fmt.Sprintf("Your portfolio carries high concentration risk (score %d/100). Consider spreading value across more sectors before adding to existing positions.", score)
	default:
		return fmt.Sprintf("Your portfolio is moderately diversified (score %d/100). A few additions in under-represented sectors would improve resilience.", score)
	}
}

// emptyPortfolioInsight is the starter response for a portfolio with no assets.
func (s *Service) emptyPortfolioInsight(portfolio *models.Portfolio) *models.DiversificationInsight {
	return &models.DiversificationInsight{
		PortfolioID:          portfolio.ID,
		DiversificationScore: 0,
		RiskLevel:            models.RiskHigh,
		SectorAllocation:     map[string]float64{},
		Insights: []string{
			"This portfolio has no holdings yet",
			"Broad-market ETFs are a common starting point for a diversified base",
		},
		Recommendations:   starterRecommendations,
		OverallAssessment: "Start with one or two broad-market funds, then add individual positions around that core.",
	}
}

// applyNarrative asks Gemini to rewrite the overall assessment from the
// computed allocation. Any failure leaves the heuristic text in place.
func (s *Service) applyNarrative(ctx context.Context, portfolio *models.Portfolio, insight *models.DiversificationInsight) {
	if s.gemini == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	text, err := s.gemini.GenerateContent(ctx, buildNarrativePrompt(portfolio, insight))
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn().Err(err).Str("portfolio_id", portfolio.ID).Msg("AI narrative unavailable, keeping heuristic assessment")
		return
	}
	insight.OverallAssessment = strings.TrimSpace(text)
}

func buildNarrativePrompt(portfolio *models.Portfolio, insight *models.DiversificationInsight) string {
	var sb strings.Builder
	sb.WriteString("You are a portfolio analyst. Write a short (2-3 sentence) plain-language assessment of this portfolio's diversification. Do not give individual investment advice.\n\n")
	fmt.Fprintf(&sb, "Portfolio: %s\n", portfolio.Name)
	fmt.Fprintf(&sb, "Diversification score: %d/100\n", insight.DiversificationScore)
	fmt.Fprintf(&sb, "Risk level: %s\n", insight.RiskLevel)
	sb.WriteString("Sector allocation:\n")
	for _, sector := range sortedSectors(insight.SectorAllocation) {
		fmt.Fprintf(&sb, "- %s: %.1f%%\n", sector, insight.SectorAllocation[sector])
	}
	return sb.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Ensure Service implements InsightService
var _ interfaces.InsightService = (*Service)(nil)
