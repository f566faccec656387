package adapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

const rmmDataProviderABIJSON = `[{"inputs":[{"internalType":"address","name":"asset","type":"address"},{"internalType":"address","name":"user","type":"address"}],"name":"getUserReserveData","outputs":[
	{"internalType":"uint256","name":"currentATokenBalance","type":"uint256"},
	{"internalType":"uint256","name":"currentStableDebt","type":"uint256"},
	{"internalType":"uint256","name":"currentVariableDebt","type":"uint256"},
	{"internalType":"uint256","name":"principalStableDebt","type":"uint256"},
	{"internalType":"uint256","name":"scaledVariableDebt","type":"uint256"},
	{"internalType":"uint256","name":"stableBorrowRate","type":"uint256"},
	{"internalType":"uint256","name":"liquidityRate","type":"uint256"},
	{"internalType":"uint40","name":"stableRateLastUpdated","type":"uint40"},
	{"internalType":"bool","name":"usageAsCollateralEnabled","type":"bool"}
],"stateMutability":"view","type":"function"}]`

var rmmDataProviderABI = mustParseABI(rmmDataProviderABIJSON)

// RmmFetcher reads lending positions from the RMM protocol data provider on Gnosis
type RmmFetcher struct {
	caller       ethereum.ContractCaller
	dataProvider common.Address

	mu       sync.Mutex
	decimals map[common.Address]int32
}

// NewRmmFetcher creates a fetcher against the data provider contract
func NewRmmFetcher(caller ethereum.ContractCaller, dataProvider string) (*RmmFetcher, error) {
	if !common.IsHexAddress(dataProvider) {
		return nil, fmt.Errorf("invalid RMM data provider address: %q", dataProvider)
	}
	return &RmmFetcher{
		caller:       caller,
		dataProvider: common.HexToAddress(dataProvider),
		decimals:     make(map[common.Address]int32),
	}, nil
}

// reserveDecimals returns the cached precision of a reserve asset
func (f *RmmFetcher) reserveDecimals(ctx context.Context, asset common.Address) (int32, error) {
	f.mu.Lock()
	d, ok := f.decimals[asset]
	f.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := Decimals(ctx, f.caller, asset)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	f.decimals[asset] = d
	f.mu.Unlock()
	return d, nil
}

// FetchPositions returns the non-empty positions of owner. Debt is the sum of
// stable and variable debt of the reserve.
func (f *RmmFetcher) FetchPositions(ctx context.Context, owner string, reserves []string) ([]models.RmmPosition, error) {
	if !common.IsHexAddress(owner) {
		return nil, ErrInvalidAddress
	}
	user := common.HexToAddress(owner)
	logger := logging.FromContext(ctx)

	positions := make([]models.RmmPosition, 0)
	var failed int
	var lastErr error
	for _, reserve := range reserves {
		if !common.IsHexAddress(reserve) {
			continue
		}
		position, err := f.fetchPosition(ctx, common.HexToAddress(reserve), user)
		if err != nil {
			failed++
			lastErr = err
			logger.WithError(err).WithField("reserve", reserve).Debug("getUserReserveData failed")
			continue
		}
		if position.Amount > 0 || position.Debt > 0 {
			positions = append(positions, position)
		}
	}

	if len(reserves) > 0 && failed == len(reserves) {
		return nil, NewAdapterError(types.ChainGnosis, "getUserReserveData", lastErr, map[string]interface{}{"owner": owner})
	}
	return positions, nil
}

func (f *RmmFetcher) fetchPosition(ctx context.Context, asset, user common.Address) (models.RmmPosition, error) {
	out, err := callMethod(ctx, f.caller, rmmDataProviderABI, f.dataProvider, "getUserReserveData", asset, user)
	if err != nil {
		return models.RmmPosition{}, err
	}

	deposit, ok1 := out[0].(*big.Int)
	stableDebt, ok2 := out[1].(*big.Int)
	variableDebt, ok3 := out[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return models.RmmPosition{}, fmt.Errorf("unexpected getUserReserveData output")
	}

	decimals, err := f.reserveDecimals(ctx, asset)
	if err != nil {
		return models.RmmPosition{}, err
	}

	debt := new(big.Int).Add(stableDebt, variableDebt)
	return models.RmmPosition{
		Address: strings.ToLower(asset.Hex()),
		Amount:  ToTokenAmount(deposit, decimals),
		Debt:    ToTokenAmount(debt, decimals),
	}, nil
}
