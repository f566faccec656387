package valuation

import (
	"sort"

	"github.com/realtoken-portfolio/internal/models"
)

// Aggregate merges per-source holdings into one row per asset identity.
// The first occurrence of an ID seeds the row with a copy, later occurrences
// add their amount and value. Input slices are never modified. Rows keep the
// order of first appearance; callers wanting a presentation order must sort.
func Aggregate(lists ...[]models.OwnedRealtoken) []models.AggregatedHolding {
	var rows []models.AggregatedHolding
	index := make(map[string]int)

	for _, list := range lists {
		for _, item := range list {
			rows = mergeHolding(rows, index, item)
		}
	}

	for i := range rows {
		rows[i].Amount = clampNonNegative(rows[i].Amount)
		rows[i].Value = clampNonNegative(rows[i].Value)
	}
	if rows == nil {
		rows = []models.AggregatedHolding{}
	}
	return rows
}

// mergeHolding folds item into rows. item is received by value so the caller's
// element is never aliased by the accumulator.
func mergeHolding(rows []models.AggregatedHolding, index map[string]int, item models.OwnedRealtoken) []models.AggregatedHolding {
	if i, ok := index[item.ID]; ok {
		merged := rows[i]
		merged.Amount += item.Amount
		merged.Value += item.Value
		rows[i] = merged
		return rows
	}
	index[item.ID] = len(rows)
	return append(rows, item)
}

// SortByValue orders holdings by descending value, ties broken by ID
func SortByValue(holdings []models.OwnedRealtoken) {
	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Value != holdings[j].Value {
			return holdings[i].Value > holdings[j].Value
		}
		return holdings[i].ID < holdings[j].ID
	})
}

// TotalValue sums the value of holdings
func TotalValue(holdings []models.OwnedRealtoken) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
