package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/realtoken-portfolio/internal/models"
)

const rentStartDateLayout = "2006-01-02 15:04:05.000000"

// catalogItem mirrors one entry of the community token API. Numeric fields
// that the API may send as null are pointers.
type catalogItem struct {
	UUID                  string   `json:"uuid"`
	ShortName             string   `json:"shortName"`
	FullName              string   `json:"fullName"`
	Symbol                string   `json:"symbol"`
	TokenPrice            *float64 `json:"tokenPrice"`
	NetRentDayPerToken    *float64 `json:"netRentDayPerToken"`
	NetRentMonthPerToken  *float64 `json:"netRentMonthPerToken"`
	NetRentYearPerToken   *float64 `json:"netRentYearPerToken"`
	AnnualPercentageYield *float64 `json:"annualPercentageYield"`
	TotalTokens           *float64 `json:"totalTokens"`
	TotalUnits            *float64 `json:"totalUnits"`
	RentedUnits           *float64 `json:"rentedUnits"`
	TotalInvestment       *float64 `json:"totalInvestment"`
	GrossRentMonth        *float64 `json:"grossRentMonth"`
	SubsidyStatus         *string  `json:"subsidyStatus"`
	SubsidyStatusValue    *float64 `json:"subsidyStatusValue"`
	RentStartDate         *struct {
		Date string `json:"date"`
	} `json:"rentStartDate"`
	IsRmmAvailable   bool    `json:"isRmmAvailable"`
	EthereumContract *string `json:"ethereumContract"`
	GnosisContract   *string `json:"gnosisContract"`
	XDaiContract     *string `json:"xDaiContract"`
}

// CatalogClient fetches the reference catalog over HTTP
type CatalogClient struct {
	url  string
	http *jsonClient
}

// NewCatalogClient creates a client for the token list at url. apiKey is
// sent as X-AUTH-REALT-TOKEN when set.
func NewCatalogClient(url, apiKey string) *CatalogClient {
	headers := map[string]string{}
	if apiKey != "" {
		headers["X-AUTH-REALT-TOKEN"] = apiKey
	}
	return &CatalogClient{
		url:  url,
		http: newJSONClient("catalog", 30*time.Second, headers),
	}
}

// FetchCatalog downloads and converts the whole catalog. Entries without a
// UUID are dropped.
func (c *CatalogClient) FetchCatalog(ctx context.Context) ([]models.ReferenceAsset, error) {
	var items []catalogItem
	if err := c.http.getJSON(ctx, c.url, &items); err != nil {
		return nil, err
	}

	assets := make([]models.ReferenceAsset, 0, len(items))
	for _, item := range items {
		if item.UUID == "" {
			continue
		}
		assets = append(assets, item.toAsset())
	}
	return assets, nil
}

func (i catalogItem) toAsset() models.ReferenceAsset {
	asset := models.ReferenceAsset{
		UUID:                  i.UUID,
		ShortName:             i.ShortName,
		FullName:              i.FullName,
		Symbol:                i.Symbol,
		TokenPrice:            orZero(i.TokenPrice),
		NetRentDayPerToken:    orZero(i.NetRentDayPerToken),
		NetRentMonthPerToken:  orZero(i.NetRentMonthPerToken),
		NetRentYearPerToken:   orZero(i.NetRentYearPerToken),
		AnnualPercentageYield: orZero(i.AnnualPercentageYield),
		TotalTokens:           orZero(i.TotalTokens),
		TotalUnits:            orZero(i.TotalUnits),
		RentedUnits:           orZero(i.RentedUnits),
		TotalInvestment:       orZero(i.TotalInvestment),
		GrossRentMonth:        orZero(i.GrossRentMonth),
		SubsidyStatusValue:    orZero(i.SubsidyStatusValue),
		IsRmmAvailable:        i.IsRmmAvailable,
		EthereumContract:      contractOrNil(i.EthereumContract),
		GnosisContract:        contractOrNil(i.GnosisContract),
		XDaiContract:          contractOrNil(i.XDaiContract),
	}
	if i.SubsidyStatus != nil {
		asset.SubsidyStatus = *i.SubsidyStatus
	}
	if i.RentStartDate != nil {
		if t, err := time.Parse(rentStartDateLayout, i.RentStartDate.Date); err == nil {
			asset.RentStartDate = t.UTC()
		}
	}
	return asset
}

func orZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func contractOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
