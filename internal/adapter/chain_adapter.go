// Package adapter talks to the outside world: EVM chains for wallet and
// lending balances, and the HTTP feeds for the catalog and market statistics.
package adapter

import (
	"context"
	"fmt"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/types"
)

// BalanceFetcher reads the token balances of one wallet for one source
type BalanceFetcher interface {
	// FetchBalances returns the non-zero balances of owner for the given
	// token contracts. Contracts that fail to answer are skipped.
	FetchBalances(ctx context.Context, owner string, contracts []string) ([]models.Balance, error)

	// Source returns the balance source this fetcher serves
	Source() types.BalanceSource
}

// RmmPositionFetcher reads the lending protocol positions of one wallet
type RmmPositionFetcher interface {
	// FetchPositions returns owner's deposit and debt for each reserve
	FetchPositions(ctx context.Context, owner string, reserves []string) ([]models.RmmPosition, error)
}

// CatalogFetcher retrieves the full reference catalog
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) ([]models.ReferenceAsset, error)
}

// StatisticsFetcher retrieves the trailing trade statistics of one asset
type StatisticsFetcher interface {
	FetchStatistics(ctx context.Context, contract string, windowDays int) (models.TradeStatistics, error)
}

var (
	// ErrInvalidAddress indicates the address format is invalid
	ErrInvalidAddress = fmt.Errorf("invalid address format")

	// ErrProviderUnavailable indicates the data provider is unavailable
	ErrProviderUnavailable = fmt.Errorf("data provider unavailable")

	// ErrProviderRateLimit indicates the provider rate limit was exceeded
	ErrProviderRateLimit = fmt.Errorf("provider rate limit exceeded")
)

// AdapterError wraps errors with additional context
type AdapterError struct {
	Chain   types.ChainID
	Op      string // Operation that failed, e.g. "balanceOf"
	Err     error
	Details map[string]interface{}
}

func (e *AdapterError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("chain adapter error [%s:%s]: %v (details: %+v)", e.Chain, e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("chain adapter error [%s:%s]: %v", e.Chain, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(chain types.ChainID, op string, err error, details map[string]interface{}) *AdapterError {
	return &AdapterError{
		Chain:   chain,
		Op:      op,
		Err:     err,
		Details: details,
	}
}
