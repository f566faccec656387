package models

import "github.com/realtoken-portfolio/internal/types"

// Balance is a token quantity held at a contract address, as reported by one source
type Balance struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// RmmPosition is a lending protocol reserve position: deposit plus the paired debt
type RmmPosition struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Debt    float64 `json:"debt"`
}

// BalanceSnapshot groups the raw balances of a wallet set, one list per source
type BalanceSnapshot struct {
	Ethereum    []Balance     `json:"ethereum"`
	Gnosis      []Balance     `json:"gnosis"`
	Rmm         []Balance     `json:"rmm"`
	RmmProtocol []RmmPosition `json:"rmmProtocol"`
}

// BySource returns the balance list for one source
func (s *BalanceSnapshot) BySource(source types.BalanceSource) []Balance {
	switch source {
	case types.SourceEthereum:
		return s.Ethereum
	case types.SourceGnosis:
		return s.Gnosis
	case types.SourceRmm:
		return s.Rmm
	}
	return nil
}
