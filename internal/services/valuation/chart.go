package valuation

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/mdavenport/folio/internal/models"
)

// RenderAllocationChart renders a PNG pie chart of a portfolio's allocation
// by current market value. Returns raw PNG bytes.
func RenderAllocationChart(p *models.Portfolio) ([]byte, error) {
	var total float64
	for i := range p.Assets {
		total += p.Assets[i].Quantity * p.Assets[i].CurrentMarketPrice
	}
	if total <= 0 {
		return nil, fmt.Errorf("portfolio %s has no positive market value to chart", p.Name)
	}

	values := make([]chart.Value, 0, len(p.Assets))
	for i := range p.Assets {
		a := &p.Assets[i]
		v := a.Quantity * a.CurrentMarketPrice
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: v,
			Label: fmt.Sprintf("%s %.1f%%", a.TickerSymbol, v/total*100),
		})
	}

	pie := chart.PieChart{
		Title:  p.Name,
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
