package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
	"github.com/realtoken-portfolio/internal/types"
)

const (
	wallet1 = "0x1111111111111111111111111111111111111111"
	wallet2 = "0x2222222222222222222222222222222222222222"

	contractA      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	contractB      = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	contractXDai   = "0xdddddddddddddddddddddddddddddddddddddddd"
	stableReserve  = "0xcccccccccccccccccccccccccccccccccccccccc"
	errFeedMessage = "feed down"
)

var errFeed = errors.New(errFeedMessage)

func strPtr(s string) *string { return &s }

// testCatalog holds an RMM enabled gnosis asset, an ethereum-only asset and a
// legacy xDai asset
func testCatalog() []models.ReferenceAsset {
	return []models.ReferenceAsset{
		{
			UUID:                 "asset-a",
			ShortName:            "A Street",
			TokenPrice:           50,
			NetRentDayPerToken:   0.02,
			NetRentMonthPerToken: 0.6,
			NetRentYearPerToken:  7.3,
			IsRmmAvailable:       true,
			GnosisContract:       strPtr("0x" + strings.ToUpper(contractA[2:])),
		},
		{
			UUID:                 "asset-b",
			ShortName:            "B Avenue",
			TokenPrice:           100,
			NetRentDayPerToken:   0.03,
			NetRentMonthPerToken: 0.9,
			NetRentYearPerToken:  10.95,
			EthereumContract:     strPtr(contractB),
		},
		{
			UUID:         "asset-x",
			ShortName:    "X Road",
			TokenPrice:   40,
			XDaiContract: strPtr(contractXDai),
		},
	}
}

type fakeCatalog struct {
	assets []models.ReferenceAsset
	err    error
}

func (f *fakeCatalog) GetCatalog(ctx context.Context) ([]models.ReferenceAsset, error) {
	return f.assets, f.err
}

// fakeBalanceFetcher serves fixed balances per owner
type fakeBalanceFetcher struct {
	source   types.BalanceSource
	balances map[string][]models.Balance
	err      error
	calls    atomic.Int32
}

func (f *fakeBalanceFetcher) Source() types.BalanceSource { return f.source }

func (f *fakeBalanceFetcher) FetchBalances(ctx context.Context, owner string, contracts []string) ([]models.Balance, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.balances[owner], nil
}

type fakeRmmFetcher struct {
	positions map[string][]models.RmmPosition
	err       error
	reserves  []string
	mu        sync.Mutex
}

func (f *fakeRmmFetcher) FetchPositions(ctx context.Context, owner string, reserves []string) ([]models.RmmPosition, error) {
	f.mu.Lock()
	f.reserves = reserves
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.positions[owner], nil
}

// setupCache returns a cache service on an in-memory Redis
func setupCache(t *testing.T) (*storage.CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisCache := storage.NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = redisCache.Close() })
	return storage.NewCacheService(redisCache, time.Minute), mr
}
