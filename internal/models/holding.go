package models

import "github.com/realtoken-portfolio/internal/types"

// OwnedRealtoken is a reference asset extended with the quantity held and its value
type OwnedRealtoken struct {
	ReferenceAsset
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
}

// AggregatedHolding is one OwnedRealtoken per asset identity, summed across sources
type AggregatedHolding = OwnedRealtoken

// HoldingMetrics are per-holding figures shown next to each asset
type HoldingMetrics struct {
	ID          string  `json:"id"`
	WeeklyRent  float64 `json:"weeklyRent"`
	YearlyRent  float64 `json:"yearlyRent"`
	Occupancy   float64 `json:"occupancy"`
	SubsidyRate float64 `json:"subsidyRate"`
	RentStarted bool    `json:"rentStarted"`
}

// PortfolioSummary is the complete valuation of a wallet set
type PortfolioSummary struct {
	Holdings      []AggregatedHolding             `json:"holdings"`
	Metrics       []HoldingMetrics                `json:"metrics"`
	ValueBySource map[types.BalanceSource]float64 `json:"valueBySource"`
	TotalValue    float64                         `json:"totalValue"`
	Rents         RentSummary                     `json:"rents"`
	APY           float64                         `json:"apy"`
	Rmm           RmmExposure                     `json:"rmm"`
	RentMode      types.RentCalculation           `json:"rentCalculation"`

	// UnavailableSources lists the balance feeds that could not be read;
	// their holdings are missing from the totals
	UnavailableSources []types.BalanceSource `json:"unavailableSources,omitempty"`
}
