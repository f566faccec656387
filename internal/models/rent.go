package models

// RentSummary is the rent income projected from current holdings.
// Weekly is derived from the daily rate; monthly and yearly come from their own rates.
type RentSummary struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// Add returns the sum of two summaries
func (r RentSummary) Add(o RentSummary) RentSummary {
	return RentSummary{
		Daily:   r.Daily + o.Daily,
		Weekly:  r.Weekly + o.Weekly,
		Monthly: r.Monthly + o.Monthly,
		Yearly:  r.Yearly + o.Yearly,
	}
}

// RmmExposure splits lending protocol positions into realtoken collateral and stable positions
type RmmExposure struct {
	StableDeposit float64 `json:"stableDeposit"`
	TotalDeposit  float64 `json:"totalDeposit"`
	StableDebt    float64 `json:"stableDebt"`
}

// Add returns the sum of two exposures
func (e RmmExposure) Add(o RmmExposure) RmmExposure {
	return RmmExposure{
		StableDeposit: e.StableDeposit + o.StableDeposit,
		TotalDeposit:  e.TotalDeposit + o.TotalDeposit,
		StableDebt:    e.StableDebt + o.StableDebt,
	}
}
