package valuation

import (
	"strings"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// NormalizeAddress is the single normalization applied before any address comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ContractFor returns the normalized contract address of asset for the given
// source. Ethereum balances match the ethereum contract; gnosis and rmm
// balances both match the gnosis contract since RMM is deployed on Gnosis.
func ContractFor(asset *models.ReferenceAsset, source types.BalanceSource) string {
	var contract *string
	switch source {
	case types.SourceEthereum:
		contract = asset.EthereumContract
	case types.SourceGnosis, types.SourceRmm:
		contract = asset.GnosisContract
	}
	if contract == nil {
		return ""
	}
	return NormalizeAddress(*contract)
}
