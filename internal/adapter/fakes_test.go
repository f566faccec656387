package adapter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/realtoken-portfolio/internal/retry"
)

// reserveData is what the fake data provider returns for one reserve
type reserveData struct {
	deposit, stableDebt, variableDebt *big.Int
}

// fakeChain answers balanceOf, decimals and getUserReserveData from memory
type fakeChain struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	decimals map[common.Address]uint8
	reserves map[common.Address]reserveData
	failing  map[common.Address]bool
	calls    int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances: map[common.Address]*big.Int{},
		decimals: map[common.Address]uint8{},
		reserves: map[common.Address]reserveData{},
		failing:  map[common.Address]bool{},
	}
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("malformed call")
	}
	if f.failing[*msg.To] {
		return nil, fmt.Errorf("execution reverted")
	}

	if method, err := erc20ABI.MethodById(msg.Data[:4]); err == nil {
		switch method.Name {
		case "balanceOf":
			balance := f.balances[*msg.To]
			if balance == nil {
				balance = big.NewInt(0)
			}
			return method.Outputs.Pack(balance)
		case "decimals":
			d, ok := f.decimals[*msg.To]
			if !ok {
				d = 18
			}
			return method.Outputs.Pack(d)
		}
	}

	method, err := rmmDataProviderABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	asset := args[0].(common.Address)
	data, ok := f.reserves[asset]
	if !ok {
		data = reserveData{big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	}
	zero := big.NewInt(0)
	return method.Outputs.Pack(data.deposit, data.stableDebt, data.variableDebt, zero, zero, zero, zero, zero, false)
}

// tokens returns amount * 10^decimals
func tokens(amount int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), scale)
}

func fastRetry() *retry.RetryConfig {
	return &retry.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}
