package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/realtoken-portfolio/internal/adapter"
	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
	"github.com/realtoken-portfolio/internal/types"
	"github.com/realtoken-portfolio/internal/valuation"
)

// PortfolioInput selects the wallets and rent mode of a valuation
type PortfolioInput struct {
	Addresses []string              `json:"addresses"`
	RentMode  types.RentCalculation `json:"rentCalculation"`
	// AsOf is the reference date for realtime rent, now when zero
	AsOf time.Time `json:"asOf,omitempty"`
}

// PortfolioService values wallet sets against the reference catalog
type PortfolioService struct {
	catalog        CatalogProvider
	fetchers       map[types.BalanceSource]adapter.BalanceFetcher
	rmm            adapter.RmmPositionFetcher
	stableReserves []string
	cache          *storage.CacheService
	now            func() time.Time
}

// NewPortfolioService creates a portfolio service. fetchers holds the wallet
// balance fetchers by source; rmm may be nil when the lending protocol is not
// configured.
func NewPortfolioService(
	catalog CatalogProvider,
	fetchers []adapter.BalanceFetcher,
	rmm adapter.RmmPositionFetcher,
	stableReserves []string,
	cache *storage.CacheService,
) *PortfolioService {
	bySource := make(map[types.BalanceSource]adapter.BalanceFetcher, len(fetchers))
	for _, f := range fetchers {
		bySource[f.Source()] = f
	}
	return &PortfolioService{
		catalog:        catalog,
		fetchers:       bySource,
		rmm:            rmm,
		stableReserves: stableReserves,
		cache:          cache,
		now:            time.Now,
	}
}

// GetPortfolio fetches balances for every address and values them
func (s *PortfolioService) GetPortfolio(ctx context.Context, input PortfolioInput) (*models.PortfolioSummary, error) {
	addresses, err := normalizeAddresses(input.Addresses)
	if err != nil {
		return nil, err
	}

	mode := input.RentMode
	if mode == "" {
		mode = types.RentGlobal
	}
	if mode != types.RentGlobal && mode != types.RentRealtime {
		return nil, apperrors.NewInvalidParameterError("rentCalculation", fmt.Sprintf("unknown mode %q", mode))
	}

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}

	cacheKey := ""
	if s.cache != nil && input.AsOf.IsZero() {
		// realtime projections change when a rent starts, so they are keyed by day
		keyMode := string(mode)
		if mode == types.RentRealtime {
			keyMode += "@" + asOf.UTC().Format("2006-01-02")
		}
		cacheKey = s.cache.PortfolioKey(addresses, keyMode)
		var cached models.PortfolioSummary
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, unavailable, err := s.FetchSnapshot(ctx, catalog, addresses)
	if err != nil {
		return nil, err
	}

	summary := valuation.Summarize(catalog, snapshot, valuation.SummaryOptions{RentMode: mode, AsOf: asOf})
	summary.UnavailableSources = unavailable

	// Degraded results are not cached so the next request retries the feed
	if cacheKey != "" && len(unavailable) == 0 {
		if err := s.cache.Set(ctx, cacheKey, summary); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Portfolio cache write failed")
		}
	}

	return summary, nil
}

type sourceResult struct {
	source    types.BalanceSource
	balances  []models.Balance
	positions []models.RmmPosition
	err       error
}

// FetchSnapshot reads all sources concurrently, one goroutine per source.
// A failing source is reported in the returned list and contributes nothing;
// the call fails only when every source failed.
func (s *PortfolioService) FetchSnapshot(ctx context.Context, catalog []models.ReferenceAsset, addresses []string) (*models.BalanceSnapshot, []types.BalanceSource, error) {
	logger := logging.FromContext(ctx)

	results := make(chan sourceResult, len(types.AllSources))
	var wg sync.WaitGroup

	for _, source := range []types.BalanceSource{types.SourceEthereum, types.SourceGnosis} {
		fetcher, ok := s.fetchers[source]
		if !ok {
			continue
		}
		contracts := contractsFor(catalog, source)
		wg.Add(1)
		go func(source types.BalanceSource, fetcher adapter.BalanceFetcher) {
			defer wg.Done()
			results <- s.fetchWallets(ctx, source, fetcher, addresses, contracts)
		}(source, fetcher)
	}

	if s.rmm != nil {
		reserves := rmmReserves(catalog, s.stableReserves)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.fetchRmm(ctx, addresses, reserves)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	snapshot := &models.BalanceSnapshot{
		Ethereum:    []models.Balance{},
		Gnosis:      []models.Balance{},
		Rmm:         []models.Balance{},
		RmmProtocol: []models.RmmPosition{},
	}
	var unavailable []types.BalanceSource
	attempted := 0
	var lastErr error

	for r := range results {
		attempted++
		if r.err != nil {
			logger.WithError(r.err).WithField("source", r.source).Warn("Balance source unavailable")
			unavailable = append(unavailable, r.source)
			lastErr = r.err
			continue
		}
		switch r.source {
		case types.SourceEthereum:
			snapshot.Ethereum = r.balances
		case types.SourceGnosis:
			snapshot.Gnosis = r.balances
		case types.SourceRmm:
			snapshot.Rmm = r.balances
			snapshot.RmmProtocol = r.positions
		}
	}

	if attempted > 0 && len(unavailable) == attempted {
		if errors.Is(lastErr, context.DeadlineExceeded) {
			timeoutErr := apperrors.NewProviderTimeoutError("balances")
			timeoutErr.Cause = lastErr
			return nil, nil, timeoutErr
		}
		return nil, nil, apperrors.NewProviderError("balances", lastErr)
	}

	sortSources(unavailable)
	return snapshot, unavailable, nil
}

// fetchWallets reads one source for every address and sums per contract
func (s *PortfolioService) fetchWallets(ctx context.Context, source types.BalanceSource, fetcher adapter.BalanceFetcher, addresses, contracts []string) sourceResult {
	perWallet := make([][]models.Balance, 0, len(addresses))
	for _, addr := range addresses {
		balances, err := fetcher.FetchBalances(ctx, addr, contracts)
		if err != nil {
			return sourceResult{source: source, err: fmt.Errorf("%s balances of %s: %w", source, addr, err)}
		}
		perWallet = append(perWallet, balances)
	}
	return sourceResult{source: source, balances: valuation.MergeBalances(perWallet...)}
}

// fetchRmm reads lending positions. Realtoken deposits double as the rmm
// balance source.
func (s *PortfolioService) fetchRmm(ctx context.Context, addresses, reserves []string) sourceResult {
	perWallet := make([][]models.RmmPosition, 0, len(addresses))
	for _, addr := range addresses {
		positions, err := s.rmm.FetchPositions(ctx, addr, reserves)
		if err != nil {
			return sourceResult{source: types.SourceRmm, err: fmt.Errorf("rmm positions of %s: %w", addr, err)}
		}
		perWallet = append(perWallet, positions)
	}

	positions := valuation.MergeRmmPositions(perWallet...)
	deposits := make([]models.Balance, 0, len(positions))
	for _, p := range positions {
		deposits = append(deposits, models.Balance{Address: p.Address, Amount: p.Amount})
	}
	return sourceResult{source: types.SourceRmm, balances: deposits, positions: positions}
}

// contractsFor lists the distinct contracts of source found in the catalog
func contractsFor(catalog []models.ReferenceAsset, source types.BalanceSource) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(catalog))
	for i := range catalog {
		contract := valuation.NormalizeAddress(valuation.ContractFor(&catalog[i], source))
		if contract == "" || seen[contract] {
			continue
		}
		seen[contract] = true
		out = append(out, contract)
	}
	return out
}

// rmmReserves lists the RMM enabled realtokens plus the stable reserves
func rmmReserves(catalog []models.ReferenceAsset, stable []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	add := func(addr string) {
		addr = valuation.NormalizeAddress(addr)
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}

	for i := range catalog {
		if catalog[i].IsRmmAvailable {
			add(valuation.ContractFor(&catalog[i], types.SourceRmm))
		}
	}
	for _, addr := range stable {
		add(addr)
	}
	return out
}

func sortSources(sources []types.BalanceSource) {
	order := make(map[types.BalanceSource]int, len(types.AllSources))
	for i, s := range types.AllSources {
		order[s] = i
	}
	sort.Slice(sources, func(i, j int) bool { return order[sources[i]] < order[sources[j]] })
}
