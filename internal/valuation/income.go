package valuation

import (
	"math"
	"time"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// daysPerWeek scales the daily rent rate; there is no separate weekly rate
const daysPerWeek = 7

// ProjectIncome projects rent income for every holding. An empty input yields
// a zero summary.
func ProjectIncome(holdings []models.AggregatedHolding) models.RentSummary {
	return ProjectIncomeAt(holdings, types.RentGlobal, time.Time{})
}

// ProjectIncomeAt projects rent income. In realtime mode, holdings whose rent
// starts after asOf contribute nothing.
func ProjectIncomeAt(holdings []models.AggregatedHolding, mode types.RentCalculation, asOf time.Time) models.RentSummary {
	summary := models.RentSummary{}
	for i := range holdings {
		if !countsForRent(&holdings[i], mode, asOf) {
			continue
		}
		summary = summary.Add(rentOf(&holdings[i]))
	}
	return summary
}

func rentOf(h *models.AggregatedHolding) models.RentSummary {
	return models.RentSummary{
		Daily:   h.NetRentDayPerToken * h.Amount,
		Weekly:  h.NetRentDayPerToken * daysPerWeek * h.Amount,
		Monthly: h.NetRentMonthPerToken * h.Amount,
		Yearly:  h.NetRentYearPerToken * h.Amount,
	}
}

func countsForRent(h *models.AggregatedHolding, mode types.RentCalculation, asOf time.Time) bool {
	if mode != types.RentRealtime || h.RentStartDate.IsZero() {
		return true
	}
	return !h.RentStartDate.After(asOf)
}

// PortfolioAPY is yearly rent divided by total portfolio value. It is 0 when
// the portfolio has no value and never NaN or infinite.
func PortfolioAPY(rents models.RentSummary, totalValue float64) float64 {
	if !(totalValue > 0) {
		return 0
	}
	apy := rents.Yearly / totalValue
	if math.IsNaN(apy) || math.IsInf(apy, 0) {
		return 0
	}
	return apy
}

// HoldingMetricsFor derives the per-asset figures displayed alongside a holding
func HoldingMetricsFor(h *models.AggregatedHolding, mode types.RentCalculation, asOf time.Time) models.HoldingMetrics {
	started := countsForRent(h, mode, asOf)
	metrics := models.HoldingMetrics{
		ID:          h.ID,
		Occupancy:   ratio(h.RentedUnits, h.TotalUnits),
		RentStarted: started,
	}
	if h.IsSubsidized() {
		metrics.SubsidyRate = ratio(h.SubsidyStatusValue, h.GrossRentMonth)
	}
	if started {
		rent := rentOf(h)
		metrics.WeeklyRent = rent.Weekly
		metrics.YearlyRent = rent.Yearly
	}
	return metrics
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
