package valuation

import (
	"testing"
	"time"

	"github.com/mdavenport/folio/internal/models"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestBuildSummary_Empty(t *testing.T) {
	s := BuildSummary(nil, nil)

	if s.TotalValue != "$0.00" {
		t.Errorf("expected totalValue $0.00, got %s", s.TotalValue)
	}
	if s.TotalGainLoss != "$0.00" {
		t.Errorf("expected totalGainLoss $0.00, got %s", s.TotalGainLoss)
	}
	if s.GainLossPercent != "0.0%" {
		t.Errorf("expected gainLossPercent 0.0%%, got %s", s.GainLossPercent)
	}
	if s.GainLossType != models.GainLossNeutral {
		t.Errorf("expected neutral, got %s", s.GainLossType)
	}
	if s.NumberOfAssets != "0" {
		t.Errorf("expected numberOfAssets 0, got %s", s.NumberOfAssets)
	}
	if s.BestPerformer != "N/A" {
		t.Errorf("expected bestPerformer N/A, got %s", s.BestPerformer)
	}
	if s.TotalRealizedPnL != "$0.00" {
		t.Errorf("expected totalRealizedPnL $0.00, got %s", s.TotalRealizedPnL)
	}
}

func TestBuildSummary_CombinesUnrealizedAndRealized(t *testing.T) {
	portfolios := []*models.Portfolio{
		{
			ID:   "p1",
			Name: "Growth",
			Assets: []models.Asset{
				{TickerSymbol: "AAPL", Quantity: 10, AveragePrice: 100, CurrentMarketPrice: 150},
			},
		},
	}
	transactions := []*models.Transaction{
		{ID: "t1", PortfolioID: "p1", TickerSymbol: "MSFT", RealizedPnL: 200, TransactionDate: day("2024-02-01")},
	}

	s := BuildSummary(portfolios, transactions)

	if s.TotalValue != "$1,500.00" {
		t.Errorf("expected totalValue $1,500.00, got %s", s.TotalValue)
	}
	if s.TotalGainLoss != "$700.00" {
		t.Errorf("expected totalGainLoss $700.00, got %s", s.TotalGainLoss)
	}
	if s.GainLossPercent != "70.0%" {
		t.Errorf("expected 70.0%%, got %s", s.GainLossPercent)
	}
	if s.GainLossType != models.GainLossGain {
		t.Errorf("expected gain, got %s", s.GainLossType)
	}
	if s.BestPerformer != "AAPL" {
		t.Errorf("expected best performer AAPL, got %s", s.BestPerformer)
	}
}

func TestBuildSummary_BestPerformerFirstWinsOnTie(t *testing.T) {
	portfolios := []*models.Portfolio{
		{
			ID: "p1",
			Assets: []models.Asset{
				{TickerSymbol: "AAA", Quantity: 1, AveragePrice: 100, CurrentMarketPrice: 150},
				{TickerSymbol: "BBB", Quantity: 2, AveragePrice: 100, CurrentMarketPrice: 150},
			},
		},
	}

	s := BuildSummary(portfolios, nil)
	if s.BestPerformer != "AAA" {
		t.Errorf("tie must keep the first asset encountered, got %s", s.BestPerformer)
	}
	if s.NumberOfAssets != "2" {
		t.Errorf("expected 2 assets, got %s", s.NumberOfAssets)
	}
}

func TestBuildSummary_DoesNotMutateInputs(t *testing.T) {
	portfolios := []*models.Portfolio{
		{ID: "p1", Assets: []models.Asset{{TickerSymbol: "AAPL", Quantity: 10, AveragePrice: 100, CurrentMarketPrice: 150}}},
	}
	transactions := []*models.Transaction{
		{ID: "t1", PortfolioID: "p1", RealizedPnL: 50, TransactionDate: day("2024-01-01")},
		{ID: "t2", PortfolioID: "p1", RealizedPnL: 60, TransactionDate: day("2024-03-01")},
	}

	first := BuildSummary(portfolios, transactions)
	second := BuildSummary(portfolios, transactions)

	if first.TotalGainLoss != second.TotalGainLoss || first.GainLossPercent != second.GainLossPercent {
		t.Error("repeated calls on identical input must yield identical output")
	}
	if transactions[0].ID != "t1" || transactions[1].ID != "t2" {
		t.Error("input transaction slice must not be reordered")
	}
	if portfolios[0].Assets[0].CurrentMarketValue != 0 {
		t.Error("input assets must not be mutated")
	}
}

func TestRealizedByPortfolio_Ordering(t *testing.T) {
	transactions := []*models.Transaction{
		{ID: "t1", PortfolioID: "p1", RealizedPnL: 10, TransactionDate: day("2024-01-01")},
		{ID: "t2", PortfolioID: "p1", RealizedPnL: 20, TransactionDate: day("2024-03-01")},
		{ID: "t3", PortfolioID: "p1", RealizedPnL: 30, TransactionDate: day("2024-02-01")},
	}

	buckets := RealizedByPortfolio(transactions)
	b, ok := buckets["p1"]
	if !ok {
		t.Fatal("expected bucket for p1")
	}
	if !approxEqual(b.Total, 60, 0.0001) {
		t.Errorf("expected total 60, got %f", b.Total)
	}

	want := []string{"t2", "t3", "t1"}
	for i, id := range want {
		if b.Transactions[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, b.Transactions[i].ID)
		}
	}
}

func TestRealizedByPortfolio_StableOnEqualTimestamps(t *testing.T) {
	ts := day("2024-05-01")
	transactions := []*models.Transaction{
		{ID: "a", PortfolioID: "p1", TransactionDate: ts},
		{ID: "b", PortfolioID: "p1", TransactionDate: ts},
		{ID: "c", PortfolioID: "p1", TransactionDate: ts},
	}

	b := RealizedByPortfolio(transactions)["p1"]
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if b.Transactions[i].ID != id {
			t.Errorf("equal timestamps must preserve input order, position %d got %s", i, b.Transactions[i].ID)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatMoney(1234567.891); got != "$1,234,567.89" {
		t.Errorf("FormatMoney: got %s", got)
	}
	if got := FormatMoney(-50); got != "-$50.00" {
		t.Errorf("FormatMoney negative: got %s", got)
	}
	if got := FormatSignedMoney(200); got != "+$200.00" {
		t.Errorf("FormatSignedMoney: got %s", got)
	}
	if got := FormatSignedMoney(0); got != "$0.00" {
		t.Errorf("FormatSignedMoney zero: got %s", got)
	}
	if got := FormatPercent(-5.26); got != "-5.3%" {
		t.Errorf("FormatPercent: got %s", got)
	}
	if got := FormatPercent(0); got != "0.0%" {
		t.Errorf("FormatPercent zero: got %s", got)
	}
}
