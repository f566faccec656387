package valuation

import (
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// FindAssetByContract returns the first catalog asset whose contract for source
// equals address. Absence is reported with ok=false and is not an error.
func FindAssetByContract(catalog []models.ReferenceAsset, source types.BalanceSource, address string) (*models.ReferenceAsset, bool) {
	target := NormalizeAddress(address)
	if target == "" {
		return nil, false
	}
	for i := range catalog {
		if ContractFor(&catalog[i], source) == target {
			return &catalog[i], true
		}
	}
	return nil, false
}

// Catalog indexes a catalog by contract address for repeated lookups.
// Lookups give the same answer as FindAssetByContract, including its
// first-match rule when two assets share an address.
type Catalog struct {
	assets     []models.ReferenceAsset
	byEthereum map[string]int
	byGnosis   map[string]int
	byXDai     map[string]int
}

// NewCatalog builds the contract indexes of assets. The slice is not copied
// and must not be modified while the Catalog is in use.
func NewCatalog(assets []models.ReferenceAsset) *Catalog {
	c := &Catalog{
		assets:     assets,
		byEthereum: make(map[string]int, len(assets)),
		byGnosis:   make(map[string]int, len(assets)),
		byXDai:     make(map[string]int),
	}
	for i := range assets {
		if addr := ContractFor(&assets[i], types.SourceEthereum); addr != "" {
			if _, seen := c.byEthereum[addr]; !seen {
				c.byEthereum[addr] = i
			}
		}
		if addr := ContractFor(&assets[i], types.SourceGnosis); addr != "" {
			if _, seen := c.byGnosis[addr]; !seen {
				c.byGnosis[addr] = i
			}
		}
		if assets[i].XDaiContract != nil {
			if addr := NormalizeAddress(*assets[i].XDaiContract); addr != "" {
				if _, seen := c.byXDai[addr]; !seen {
					c.byXDai[addr] = i
				}
			}
		}
	}
	return c
}

// Find looks up the asset matching address in the contract domain of source
func (c *Catalog) Find(source types.BalanceSource, address string) (*models.ReferenceAsset, bool) {
	index := c.byGnosis
	if source == types.SourceEthereum {
		index = c.byEthereum
	} else if !source.IsValid() {
		return nil, false
	}

	i, ok := index[NormalizeAddress(address)]
	if !ok {
		return nil, false
	}
	return &c.assets[i], true
}

// FindCollateral looks up the realtoken deposited in the lending protocol
// under address. Deposits are recorded under the gnosis contract, or under
// the legacy xDai contract for assets issued before the migration; a gnosis
// match takes precedence.
func (c *Catalog) FindCollateral(address string) (*models.ReferenceAsset, bool) {
	addr := NormalizeAddress(address)
	if i, ok := c.byGnosis[addr]; ok {
		return &c.assets[i], true
	}
	if i, ok := c.byXDai[addr]; ok {
		return &c.assets[i], true
	}
	return nil, false
}
