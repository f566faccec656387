package service

import (
	"context"
	"sync"
	"time"

	"github.com/realtoken-portfolio/internal/adapter"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
	"github.com/realtoken-portfolio/internal/valuation"
)

// MarketConfig bounds the statistics fan-out
type MarketConfig struct {
	WindowDays   int
	Concurrency  int
	FetchTimeout time.Duration
}

// MarketService compares secondary market prices with reference prices
type MarketService struct {
	catalog CatalogProvider
	stats   adapter.StatisticsFetcher
	cache   *storage.CacheService
	config  MarketConfig
}

// NewMarketService creates a market service. stats is either the ClickHouse
// trade repository or the remote market client.
func NewMarketService(catalog CatalogProvider, stats adapter.StatisticsFetcher, cache *storage.CacheService, config MarketConfig) *MarketService {
	if config.WindowDays <= 0 {
		config.WindowDays = valuation.DefaultMarketWindowDays
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 10 * time.Second
	}
	return &MarketService{
		catalog: catalog,
		stats:   stats,
		cache:   cache,
		config:  config,
	}
}

// GetDivergence returns the displayable divergence rows of every asset
// traded on Gnosis
func (s *MarketService) GetDivergence(ctx context.Context) ([]models.MarketRow, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.cache.MarketKey(s.config.WindowDays)
		var cached []models.MarketRow
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	stats, failed := s.FetchAllStatistics(ctx, catalog)
	rows := valuation.MarketRows(catalog, stats)

	// Rows built from missing windows are not cached so the next request
	// asks the feed again
	if cacheKey != "" && failed == 0 {
		if err := s.cache.Set(ctx, cacheKey, rows); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Market cache write failed")
		}
	}
	return rows, nil
}

// FetchAllStatistics fetches one statistics window per Gnosis-deployed asset
// with at most Concurrency requests in flight, and waits for all of them.
// A failed or cancelled fetch yields empty statistics for that asset and is
// counted in failed. The result is keyed by asset UUID.
func (s *MarketService) FetchAllStatistics(ctx context.Context, catalog []models.ReferenceAsset) (stats map[string]models.TradeStatistics, failed int) {
	logger := logging.FromContext(ctx)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	stats = make(map[string]models.TradeStatistics, len(catalog))
	sem := make(chan struct{}, s.config.Concurrency)

	for i := range catalog {
		asset := &catalog[i]
		contract := marketContract(asset)
		if contract == "" {
			continue
		}

		wg.Add(1)
		go func(id, contract string) {
			defer wg.Done()

			result := models.EmptyTradeStatistics()
			ok := true
			select {
			case sem <- struct{}{}:
				fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
				fetched, err := s.stats.FetchStatistics(fetchCtx, contract, s.config.WindowDays)
				cancel()
				<-sem
				if err != nil {
					logger.WithError(err).WithField("contract", contract).Debug("Trade statistics unavailable")
					ok = false
				} else {
					result = fetched
				}
			case <-ctx.Done():
				ok = false
			}

			mu.Lock()
			stats[id] = result
			if !ok {
				failed++
			}
			mu.Unlock()
		}(asset.UUID, contract)
	}
	wg.Wait()

	if failed > 0 {
		logger.WithFields(map[string]interface{}{
			"failed": failed,
			"total":  len(stats),
		}).Warn("Some trade statistics could not be fetched")
	}
	return stats, failed
}

// marketContract is the contract trades are recorded under: the gnosis
// contract, or the legacy xDai one
func marketContract(asset *models.ReferenceAsset) string {
	if asset.GnosisContract != nil && *asset.GnosisContract != "" {
		return valuation.NormalizeAddress(*asset.GnosisContract)
	}
	if asset.XDaiContract != nil {
		return valuation.NormalizeAddress(*asset.XDaiContract)
	}
	return ""
}
