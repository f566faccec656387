package valuation

import (
	"math"

	"github.com/realtoken-portfolio/internal/models"
)

// DefaultMarketWindowDays is the trailing window over which trades are aggregated
const DefaultMarketWindowDays = 30

// ComputeDivergence derives the implied market price of asset from its trade
// statistics and compares it to the reference price. With no traded quantity
// the price is NaN and the result is not Displayable.
func ComputeDivergence(stats models.TradeStatistics, asset *models.ReferenceAsset) models.MarketDivergence {
	price := math.NaN()
	if stats.Quantity != 0 {
		price = stats.Volume / stats.Quantity
	}
	difference := price - asset.TokenPrice

	return models.MarketDivergence{
		Price:             price,
		Difference:        difference,
		DifferencePercent: difference / asset.TokenPrice * 100,
		Volume:            stats.Volume,
	}
}

// MarketRows computes the divergence of every catalog asset deployed on Gnosis
// and keeps the displayable ones, in catalog order. stats is keyed by asset
// UUID; a missing entry counts as an empty window.
func MarketRows(catalog []models.ReferenceAsset, stats map[string]models.TradeStatistics) []models.MarketRow {
	rows := make([]models.MarketRow, 0)
	for i := range catalog {
		asset := &catalog[i]
		if !asset.HasGnosisDeployment() {
			continue
		}
		s, ok := stats[asset.UUID]
		if !ok {
			s = models.EmptyTradeStatistics()
		}
		d := ComputeDivergence(s, asset)
		if !d.Displayable() {
			continue
		}
		rows = append(rows, models.MarketRow{
			ID:         asset.UUID,
			ShortName:  asset.ShortName,
			TokenPrice: asset.TokenPrice,
			Divergence: d,
		})
	}
	return rows
}
