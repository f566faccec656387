package valuation

import (
	"github.com/realtoken-portfolio/internal/models"
)

func strPtr(s string) *string {
	return &s
}

// testAsset builds a catalog record with an ethereum and a gnosis contract
// derived from id.
func testAsset(id string, price float64) models.ReferenceAsset {
	return models.ReferenceAsset{
		UUID:                 id,
		ShortName:            "RealToken " + id,
		TokenPrice:           price,
		NetRentDayPerToken:   0.01,
		NetRentMonthPerToken: 0.3,
		NetRentYearPerToken:  3.65,
		TotalUnits:           4,
		RentedUnits:          3,
		EthereumContract:     strPtr("0xE" + id),
		GnosisContract:       strPtr("0xG" + id),
	}
}

func testCatalog(n int) []models.ReferenceAsset {
	ids := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"}
	catalog := make([]models.ReferenceAsset, 0, n)
	for i := 0; i < n; i++ {
		catalog = append(catalog, testAsset(ids[i], float64(10*(i+1))))
	}
	return catalog
}

func findRow(rows []models.OwnedRealtoken, id string) (models.OwnedRealtoken, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return models.OwnedRealtoken{}, false
}
