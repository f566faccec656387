package valuation

import (
	"github.com/realtoken-portfolio/internal/models"
)

// AggregateRmmExposure folds lending protocol positions into an exposure.
// A position matching a catalog asset by gnosis or xDai contract is realtoken
// collateral and only adds its market value to the total deposit; its debt
// is ignored. Any other position is taken as a stable asset priced 1:1 and
// adds to total deposit, stable deposit and stable debt.
func AggregateRmmExposure(catalog []models.ReferenceAsset, positions []models.RmmPosition) models.RmmExposure {
	index := NewCatalog(catalog)

	exposure := models.RmmExposure{}
	for _, p := range positions {
		exposure = exposure.Add(exposureOf(index, p))
	}
	return exposure
}

func exposureOf(catalog *Catalog, p models.RmmPosition) models.RmmExposure {
	if asset, ok := catalog.FindCollateral(p.Address); ok {
		return models.RmmExposure{TotalDeposit: p.Amount * asset.TokenPrice}
	}
	return models.RmmExposure{
		TotalDeposit:  p.Amount,
		StableDeposit: p.Amount,
		StableDebt:    p.Debt,
	}
}
