package valuation

import (
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// Reconcile matches the balances reported by source against the catalog and
// returns one OwnedRealtoken per asset held with a positive amount. Balances
// for addresses outside the catalog are ignored; when several balances share
// an address the first one is used. Output is sorted by descending value.
func Reconcile(catalog []models.ReferenceAsset, balances []models.Balance, source types.BalanceSource) []models.OwnedRealtoken {
	owned := reconcile(catalog, balances, source)
	SortByValue(owned)
	return owned
}

// reconcile is Reconcile in catalog order
func reconcile(catalog []models.ReferenceAsset, balances []models.Balance, source types.BalanceSource) []models.OwnedRealtoken {
	amounts := indexBalances(balances)

	owned := make([]models.OwnedRealtoken, 0, len(amounts))
	for i := range catalog {
		contract := ContractFor(&catalog[i], source)
		if contract == "" {
			continue
		}
		amount, ok := amounts[contract]
		if !ok || !(amount > 0) {
			continue
		}
		owned = append(owned, newOwned(catalog[i], amount))
	}
	return owned
}

func newOwned(asset models.ReferenceAsset, amount float64) models.OwnedRealtoken {
	return models.OwnedRealtoken{
		ReferenceAsset: asset,
		ID:             asset.UUID,
		Amount:         amount,
		Value:          amount * asset.TokenPrice,
	}
}

// indexBalances keys balances by normalized address, keeping the first occurrence
func indexBalances(balances []models.Balance) map[string]float64 {
	amounts := make(map[string]float64, len(balances))
	for _, b := range balances {
		addr := NormalizeAddress(b.Address)
		if addr == "" {
			continue
		}
		if _, seen := amounts[addr]; !seen {
			amounts[addr] = b.Amount
		}
	}
	return amounts
}
