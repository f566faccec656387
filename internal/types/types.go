// Package types provides common type definitions for the realtoken portfolio service.
package types

import "strings"

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainGnosis represents the Gnosis chain (formerly xDai)
	ChainGnosis ChainID = "gnosis"
)

// NormalizeChainID maps chain aliases onto the canonical identifier.
// "xdai" and "100" are folded into gnosis, "mainnet" and "1" into ethereum.
func NormalizeChainID(chain string) ChainID {
	switch strings.ToLower(strings.TrimSpace(chain)) {
	case "gnosis", "xdai", "100":
		return ChainGnosis
	case "ethereum", "eth", "mainnet", "1":
		return ChainEthereum
	default:
		return ChainID(strings.ToLower(strings.TrimSpace(chain)))
	}
}

// BalanceSource identifies one of the independent balance feeds
type BalanceSource string

const (
	// SourceEthereum is the wallet balance on Ethereum mainnet
	SourceEthereum BalanceSource = "ethereum"
	// SourceGnosis is the wallet balance on Gnosis chain
	SourceGnosis BalanceSource = "gnosis"
	// SourceRmm is the deposit balance in the RMM lending protocol
	SourceRmm BalanceSource = "rmm"
)

// AllSources lists the balance sources in merge order
var AllSources = []BalanceSource{SourceGnosis, SourceEthereum, SourceRmm}

// Chain returns the chain on which the source lives. RMM is deployed on Gnosis.
func (s BalanceSource) Chain() ChainID {
	if s == SourceEthereum {
		return ChainEthereum
	}
	return ChainGnosis
}

// IsValid reports whether s is a known source
func (s BalanceSource) IsValid() bool {
	switch s {
	case SourceEthereum, SourceGnosis, SourceRmm:
		return true
	}
	return false
}

// RentCalculation selects which holdings count towards the rent projection
type RentCalculation string

const (
	// RentGlobal counts every holding regardless of its rent start date
	RentGlobal RentCalculation = "global"
	// RentRealtime ignores holdings whose rent has not started yet
	RentRealtime RentCalculation = "realtime"
)

// ParseRentCalculation parses a query value, defaulting to global
func ParseRentCalculation(value string) RentCalculation {
	if RentCalculation(strings.ToLower(value)) == RentRealtime {
		return RentRealtime
	}
	return RentGlobal
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
