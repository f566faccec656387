package models

import (
	"time"
)

// ReferenceAsset is a catalog record describing one realtoken.
// It is an immutable snapshot for the duration of a computation.
type ReferenceAsset struct {
	UUID                  string    `json:"uuid" db:"uuid"`
	ShortName             string    `json:"shortName" db:"short_name"`
	FullName              string    `json:"fullName" db:"full_name"`
	Symbol                string    `json:"symbol" db:"symbol"`
	TokenPrice            float64   `json:"tokenPrice" db:"token_price"`
	NetRentDayPerToken    float64   `json:"netRentDayPerToken" db:"net_rent_day_per_token"`
	NetRentMonthPerToken  float64   `json:"netRentMonthPerToken" db:"net_rent_month_per_token"`
	NetRentYearPerToken   float64   `json:"netRentYearPerToken" db:"net_rent_year_per_token"`
	AnnualPercentageYield float64   `json:"annualPercentageYield" db:"annual_percentage_yield"`
	TotalTokens           float64   `json:"totalTokens" db:"total_tokens"`
	TotalUnits            float64   `json:"totalUnits" db:"total_units"`
	RentedUnits           float64   `json:"rentedUnits" db:"rented_units"`
	TotalInvestment       float64   `json:"totalInvestment" db:"total_investment"`
	GrossRentMonth        float64   `json:"grossRentMonth" db:"gross_rent_month"`
	SubsidyStatus         string    `json:"subsidyStatus" db:"subsidy_status"`
	SubsidyStatusValue    float64   `json:"subsidyStatusValue" db:"subsidy_status_value"`
	RentStartDate         time.Time `json:"rentStartDate" db:"rent_start_date"`
	IsRmmAvailable        bool      `json:"isRmmAvailable" db:"is_rmm_available"`

	// Contract addresses, one per chain or protocol domain. Any may be nil.
	EthereumContract *string `json:"ethereumContract,omitempty" db:"ethereum_contract"`
	GnosisContract   *string `json:"gnosisContract,omitempty" db:"gnosis_contract"`
	XDaiContract     *string `json:"xDaiContract,omitempty" db:"xdai_contract"`
}

// IsSubsidized reports whether the asset carries a rent subsidy
func (a *ReferenceAsset) IsSubsidized() bool {
	return a.SubsidyStatus != "" && a.SubsidyStatus != "no" && a.SubsidyStatusValue > 0
}

// HasGnosisDeployment reports whether the asset can trade on Gnosis
func (a *ReferenceAsset) HasGnosisDeployment() bool {
	return (a.GnosisContract != nil && *a.GnosisContract != "") ||
		(a.XDaiContract != nil && *a.XDaiContract != "")
}
