package valuation

import (
	"sort"
	"time"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// SummaryOptions controls how rent is projected in Summarize
type SummaryOptions struct {
	RentMode types.RentCalculation
	AsOf     time.Time
}

// Summarize runs the whole pipeline on one balance snapshot: reconcile every
// source, aggregate, project income and RMM exposure. Holdings are returned
// sorted by descending value.
func Summarize(catalog []models.ReferenceAsset, snapshot *models.BalanceSnapshot, opts SummaryOptions) *models.PortfolioSummary {
	if opts.RentMode == "" {
		opts.RentMode = types.RentGlobal
	}

	perSource := make([][]models.OwnedRealtoken, 0, len(types.AllSources))
	valueBySource := make(map[types.BalanceSource]float64, len(types.AllSources))
	for _, source := range types.AllSources {
		owned := reconcile(catalog, snapshot.BySource(source), source)
		valueBySource[source] = TotalValue(owned)
		perSource = append(perSource, owned)
	}

	holdings := Aggregate(perSource...)
	SortByValue(holdings)

	total := TotalValue(holdings)
	rents := ProjectIncomeAt(holdings, opts.RentMode, opts.AsOf)

	metrics := make([]models.HoldingMetrics, 0, len(holdings))
	for i := range holdings {
		metrics = append(metrics, HoldingMetricsFor(&holdings[i], opts.RentMode, opts.AsOf))
	}

	return &models.PortfolioSummary{
		Holdings:      holdings,
		Metrics:       metrics,
		ValueBySource: valueBySource,
		TotalValue:    total,
		Rents:         rents,
		APY:           PortfolioAPY(rents, total),
		Rmm:           AggregateRmmExposure(catalog, snapshot.RmmProtocol),
		RentMode:      opts.RentMode,
	}
}

// MergeBalances sums balances that share a contract address, e.g. the same
// token held by several wallets. Addresses are normalized and the result is
// sorted by address.
func MergeBalances(lists ...[]models.Balance) []models.Balance {
	sums := make(map[string]float64)
	for _, list := range lists {
		for _, b := range list {
			addr := NormalizeAddress(b.Address)
			if addr == "" {
				continue
			}
			sums[addr] += b.Amount
		}
	}

	merged := make([]models.Balance, 0, len(sums))
	for addr, amount := range sums {
		merged = append(merged, models.Balance{Address: addr, Amount: amount})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Address < merged[j].Address })
	return merged
}

// MergeRmmPositions sums deposit and debt of positions sharing an address
func MergeRmmPositions(lists ...[]models.RmmPosition) []models.RmmPosition {
	sums := make(map[string]models.RmmPosition)
	for _, list := range lists {
		for _, p := range list {
			addr := NormalizeAddress(p.Address)
			if addr == "" {
				continue
			}
			acc := sums[addr]
			sums[addr] = models.RmmPosition{Address: addr, Amount: acc.Amount + p.Amount, Debt: acc.Debt + p.Debt}
		}
	}

	merged := make([]models.RmmPosition, 0, len(sums))
	for _, p := range sums {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Address < merged[j].Address })
	return merged
}
