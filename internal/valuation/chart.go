package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActiveScenario returns the recommended scenario, or the first one when the
// recommendation does not match any id.
func ActiveScenario(r Report) *Scenario {
	for i := range r.Scenarios {
		if r.Scenarios[i].ID == r.BestScenarioID {
			return &r.Scenarios[i]
		}
	}
	if len(r.Scenarios) > 0 {
		return &r.Scenarios[0]
	}
	return nil
}

type CashFlowPoint struct {
	Year       string  `json:"year"`
	CashFlow   float64 `json:"cashflow"`
	Cumulative float64 `json:"cumulative"`
}

func yearLabel(idx int) string {
	if idx == 0 {
		return "建置"
	}
	return fmt.Sprintf("Y%d", idx)
}

// CashFlowSeries pairs each yearly cash flow with its running total.
func CashFlowSeries(s *Scenario) []CashFlowPoint {
	if s == nil {
		return nil
	}
	out := make([]CashFlowPoint, 0, len(s.Financials.YearlyCashFlow))
	running := decimal.Zero
	for i, v := range s.Financials.YearlyCashFlow {
		running = running.Add(decimal.NewFromFloat(v))
		out = append(out, CashFlowPoint{
			Year:       yearLabel(i),
			CashFlow:   v,
			Cumulative: running.InexactFloat64(),
		})
	}
	return out
}

// GradientOffset is where the cumulative curve crosses zero, as a fraction of
// the chart height measured from the top.
func GradientOffset(points []CashFlowPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	maxV, minV := points[0].Cumulative, points[0].Cumulative
	for _, p := range points[1:] {
		if p.Cumulative > maxV {
			maxV = p.Cumulative
		}
		if p.Cumulative < minV {
			minV = p.Cumulative
		}
	}
	if maxV <= 0 {
		return 0
	}
	if minV >= 0 {
		return 1
	}
	return maxV / (maxV - minV)
}
