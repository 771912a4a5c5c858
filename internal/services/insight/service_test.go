package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/models"
	"github.com/mdavenport/folio/internal/services/market"
)

func newTestService(gemini *stubGemini) *Service {
	marketSvc := market.NewService(nil, time.Minute, common.NewSilentLogger())
	if gemini == nil {
		return NewService(marketSvc, nil, common.NewSilentLogger())
	}
	return NewService(marketSvc, gemini, common.NewSilentLogger())
}

type stubGemini struct {
	text string
	err  error
}

func (g *stubGemini) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

func (g *stubGemini) Close() error { return nil }

func techHeavyPortfolio() *models.Portfolio {
	return &models.Portfolio{
		ID:   "p1",
		Name: "Tech",
		Assets: []models.Asset{
			{TickerSymbol: "AAPL", Quantity: 10, AveragePrice: 100, CurrentMarketPrice: 150},
			{TickerSymbol: "MSFT", Quantity: 5, AveragePrice: 300, CurrentMarketPrice: 400},
		},
	}
}

func TestAnalyze_EmptyPortfolio(t *testing.T) {
	svc := newTestService(nil)

	insight, err := svc.Analyze(context.Background(), &models.Portfolio{ID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, 0, insight.DiversificationScore)
	assert.Equal(t, models.RiskHigh, insight.RiskLevel)
	require.Len(t, insight.Recommendations, 3)
	assert.Equal(t, "SPY", insight.Recommendations[0].TickerSymbol)
	assert.Equal(t, "QQQ", insight.Recommendations[1].TickerSymbol)
	assert.Equal(t, "VTI", insight.Recommendations[2].TickerSymbol)
}

func TestAnalyze_ConcentratedPortfolioIsHighRisk(t *testing.T) {
	svc := newTestService(nil)

	insight, err := svc.Analyze(context.Background(), techHeavyPortfolio())
	require.NoError(t, err)

	// 100% Technology: over the 60% concentration limit.
	assert.Equal(t, models.RiskHigh, insight.RiskLevel)
	assert.InDelta(t, 100.0, insight.SectorAllocation["Technology"], 0.001)
	assert.NotEmpty(t, insight.Insights)
	assert.NotEmpty(t, insight.OverallAssessment)
}

func TestAnalyze_RecommendationsFillMissingSectors(t *testing.T) {
	svc := newTestService(nil)

	insight, err := svc.Analyze(context.Background(), techHeavyPortfolio())
	require.NoError(t, err)

	require.Len(t, insight.Recommendations, 3, "recommendations are capped at 3")
	tickers := make([]string, 0, 3)
	for _, r := range insight.Recommendations {
		tickers = append(tickers, r.TickerSymbol)
	}
	assert.Equal(t, []string{"JNJ", "JPM", "PG"}, tickers)
}

func TestAnalyze_BalancedPortfolioIsLowerRisk(t *testing.T) {
	svc := newTestService(nil)

	p := &models.Portfolio{
		ID: "p2",
		Assets: []models.Asset{
			{TickerSymbol: "AAPL", Quantity: 1, CurrentMarketPrice: 100},
			{TickerSymbol: "JNJ", Quantity: 1, CurrentMarketPrice: 100},
			{TickerSymbol: "JPM", Quantity: 1, CurrentMarketPrice: 100},
			{TickerSymbol: "PG", Quantity: 1, CurrentMarketPrice: 100},
			{TickerSymbol: "XOM", Quantity: 1, CurrentMarketPrice: 100},
		},
	}

	insight, err := svc.Analyze(context.Background(), p)
	require.NoError(t, err)

	// Five equal sectors: HHI 0.2, base 80 plus holdings bonus, capped.
	assert.GreaterOrEqual(t, insight.DiversificationScore, 70)
	assert.Equal(t, models.RiskLow, insight.RiskLevel)
}

func TestAnalyze_GeminiNarrativeReplacesAssessment(t *testing.T) {
	svc := newTestService(&stubGemini{text: "A thoughtful narrative."})

	insight, err := svc.Analyze(context.Background(), techHeavyPortfolio())
	require.NoError(t, err)
	assert.Equal(t, "A thoughtful narrative.", insight.OverallAssessment)
}

func TestAnalyze_GeminiFailureKeepsHeuristicText(t *testing.T) {
	svc := newTestService(&stubGemini{err: errors.New("quota exhausted")})

	insight, err := svc.Analyze(context.Background(), techHeavyPortfolio())
	require.NoError(t, err)
	assert.Contains(t, insight.OverallAssessment, "score")
}

func TestDiversificationScore(t *testing.T) {
	single := map[string]float64{"Technology": 100}
	assert.Equal(t, 2, diversificationScore(single, 1), "single sector, single holding")

	five := map[string]float64{"A": 20, "B": 20, "C": 20, "D": 20, "E": 20}
	score := diversificationScore(five, 10)
	assert.Equal(t, 100, score, "80 base + 20 bonus capped at 100")
}
