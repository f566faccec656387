package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/realtoken-portfolio/internal/circuitbreaker"
	"github.com/realtoken-portfolio/internal/models"
)

// MarketClient fetches secondary market trade statistics over HTTP.
// The endpoint is GET {base}/{contract}?days={window}.
type MarketClient struct {
	baseURL string
	http    *jsonClient
}

// NewMarketClient creates a statistics client
func NewMarketClient(baseURL string, timeout time.Duration) *MarketClient {
	return &MarketClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newJSONClient("market", timeout, nil).withBreaker(circuitbreaker.DefaultConfig("market-statistics")),
	}
}

// FetchStatistics returns the statistics of contract over the trailing windowDays
func (c *MarketClient) FetchStatistics(ctx context.Context, contract string, windowDays int) (models.TradeStatistics, error) {
	endpoint := fmt.Sprintf("%s/%s?days=%d", c.baseURL, url.PathEscape(strings.ToLower(contract)), windowDays)

	var stats models.TradeStatistics
	if err := c.http.getJSON(ctx, endpoint, &stats); err != nil {
		return models.EmptyTradeStatistics(), err
	}
	if stats.Days == nil {
		stats.Days = []int64{}
	}
	return stats, nil
}
