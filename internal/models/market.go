package models

import "math"

// TradeStatistics aggregates secondary market trades of one asset over a trailing window
type TradeStatistics struct {
	Quantity float64 `json:"quantity"`
	Volume   float64 `json:"volume"`
	// Days holds the UTC midnight unix timestamps of the days that had trades
	Days []int64 `json:"days"`
}

// EmptyTradeStatistics is substituted when statistics could not be fetched
func EmptyTradeStatistics() TradeStatistics {
	return TradeStatistics{Days: []int64{}}
}

// MarketDivergence compares the implied market price with the reference price.
// Price is NaN when there were no trades in the window.
type MarketDivergence struct {
	Price             float64 `json:"price"`
	Difference        float64 `json:"difference"`
	DifferencePercent float64 `json:"differencePercent"`
	Volume            float64 `json:"volume"`
}

// Displayable reports whether the divergence is backed by trade data
func (d MarketDivergence) Displayable() bool {
	return isFinite(d.Price) && isFinite(d.Difference) && isFinite(d.DifferencePercent)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarketRow is one displayable line of the market divergence table
type MarketRow struct {
	ID         string           `json:"id"`
	ShortName  string           `json:"shortName"`
	TokenPrice float64          `json:"tokenPrice"`
	Divergence MarketDivergence `json:"divergence"`
}
