package adapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// callMethod packs args, performs the eth_call against target and unpacks the outputs
func callMethod(ctx context.Context, caller ethereum.ContractCaller, contract abi.ABI, target common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := caller.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	out, err := contract.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// BalanceOf returns the raw ERC-20 balance of owner at token
func BalanceOf(ctx context.Context, caller ethereum.ContractCaller, token, owner common.Address) (*big.Int, error) {
	out, err := callMethod(ctx, caller, erc20ABI, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output %T", out[0])
	}
	return balance, nil
}

// Decimals returns the ERC-20 precision of token
func Decimals(ctx context.Context, caller ethereum.ContractCaller, token common.Address) (int32, error) {
	out, err := callMethod(ctx, caller, erc20ABI, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals output %T", out[0])
	}
	return int32(decimals), nil
}

// EVMBalanceFetcher reads realtoken wallet balances on one EVM chain with
// ERC-20 balanceOf calls
type EVMBalanceFetcher struct {
	source      types.BalanceSource
	caller      ethereum.ContractCaller
	concurrency int
}

// NewEVMBalanceFetcher creates a fetcher for source using caller for eth_call
func NewEVMBalanceFetcher(source types.BalanceSource, caller ethereum.ContractCaller, concurrency int) *EVMBalanceFetcher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &EVMBalanceFetcher{
		source:      source,
		caller:      caller,
		concurrency: concurrency,
	}
}

// Source returns the balance source this fetcher serves
func (f *EVMBalanceFetcher) Source() types.BalanceSource {
	return f.source
}

// FetchBalances queries every contract concurrently. Individual failures are
// logged and skipped; the call fails only when no contract answered.
func (f *EVMBalanceFetcher) FetchBalances(ctx context.Context, owner string, contracts []string) ([]models.Balance, error) {
	if !common.IsHexAddress(owner) {
		return nil, ErrInvalidAddress
	}
	if len(contracts) == 0 {
		return []models.Balance{}, nil
	}

	ownerAddr := common.HexToAddress(owner)
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"source": f.source,
		"owner":  owner,
	})

	amounts := make([]float64, len(contracts))
	errs := make([]error, len(contracts))
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup

	for i, contract := range contracts {
		if !common.IsHexAddress(contract) {
			errs[i] = ErrInvalidAddress
			continue
		}
		wg.Add(1)
		go func(i int, token common.Address) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			raw, err := BalanceOf(ctx, f.caller, token, ownerAddr)
			if err != nil {
				errs[i] = err
				return
			}
			amounts[i] = ToTokenAmount(raw, RealtokenDecimals)
		}(i, common.HexToAddress(contract))
	}
	wg.Wait()

	balances := make([]models.Balance, 0)
	var failed int
	var lastErr error
	for i, contract := range contracts {
		if errs[i] != nil {
			failed++
			lastErr = errs[i]
			continue
		}
		if amounts[i] > 0 {
			balances = append(balances, models.Balance{Address: strings.ToLower(contract), Amount: amounts[i]})
		}
	}

	if failed > 0 {
		logger.WithFields(map[string]interface{}{
			"failed": failed,
			"total":  len(contracts),
		}).WithError(lastErr).Warn("Some balanceOf calls failed")
	}
	if failed == len(contracts) {
		return nil, NewAdapterError(f.source.Chain(), "balanceOf", lastErr, map[string]interface{}{"owner": owner})
	}
	return balances, nil
}
