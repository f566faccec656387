// Package app assembles the adapters, storage and services from configuration.
// Both the API server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/realtoken-portfolio/internal/adapter"
	"github.com/realtoken-portfolio/internal/config"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/service"
	"github.com/realtoken-portfolio/internal/storage"
	"github.com/realtoken-portfolio/internal/types"
)

// Options selects which backing stores are opened
type Options struct {
	// Ephemeral skips Postgres and Redis. The catalog is then read from the
	// remote feed on every call and wallets cannot be tracked.
	Ephemeral bool
	// MigrationsPath, when set, applies the Postgres migrations on start
	MigrationsPath string
}

// App holds the wired services and the resources they own
type App struct {
	Postgres   *storage.PostgresDB
	Redis      *storage.RedisCache
	ClickHouse *storage.ClickHouseDB
	Trades     *storage.TradeRepository

	Catalog   *service.CatalogService
	Portfolio *service.PortfolioService
	Market    *service.MarketService
	Wallets   *service.WalletService

	clients []*adapter.EVMClient
}

// New connects the configured stores and builds every service
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := logging.FromContext(ctx)
	a := &App{}

	var (
		cache        *storage.CacheService
		catalogStore service.CatalogStore
	)

	if !opts.Ephemeral {
		if opts.MigrationsPath != "" {
			if err := storage.RunMigrations(storage.PostgresURL(&cfg.Database.Postgres), opts.MigrationsPath); err != nil {
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}

		postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		a.Postgres = postgres

		redis, err := storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.Redis = redis

		cache = storage.NewCacheService(redis, cfg.Cache.TTL)
		catalogStore = storage.NewCatalogRepository(postgres)
		a.Wallets = service.NewWalletService(storage.NewWalletRepository(postgres))
		logger.Info("Database connections established")
	}

	if cfg.Database.ClickHouse.Host != "" {
		clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		a.ClickHouse = clickhouse
		a.Trades = storage.NewTradeRepository(clickhouse)
	}

	fetchers, rmm, err := a.buildChainFetchers(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Catalog = service.NewCatalogService(
		adapter.NewCatalogClient(cfg.Catalog.URL, cfg.Catalog.APIKey),
		catalogStore,
		cache,
		cfg.Catalog.RefreshTTL,
	)

	a.Portfolio = service.NewPortfolioService(a.Catalog, fetchers, rmm, cfg.Rmm.StableReserves, cache)

	// Local trade history wins over the remote statistics feed
	var stats adapter.StatisticsFetcher
	switch {
	case a.Trades != nil:
		stats = a.Trades
	case cfg.Market.StatisticsURL != "":
		stats = adapter.NewMarketClient(cfg.Market.StatisticsURL, cfg.Market.FetchTimeout)
	default:
		logger.Warn("No trade statistics source configured, market divergence disabled")
	}
	if stats != nil {
		a.Market = service.NewMarketService(a.Catalog, stats, cache, service.MarketConfig{
			WindowDays:   cfg.Market.WindowDays,
			Concurrency:  cfg.Market.Concurrency,
			FetchTimeout: cfg.Market.FetchTimeout,
		})
	}

	return a, nil
}

// buildChainFetchers creates one RPC client per configured chain, the wallet
// balance fetcher on top of it and, on Gnosis, the RMM position reader
func (a *App) buildChainFetchers(ctx context.Context, cfg *config.Config) ([]adapter.BalanceFetcher, adapter.RmmPositionFetcher, error) {
	logger := logging.FromContext(ctx)

	sources := map[types.ChainID]types.BalanceSource{
		types.ChainEthereum: types.SourceEthereum,
		types.ChainGnosis:   types.SourceGnosis,
	}

	var (
		fetchers []adapter.BalanceFetcher
		gnosis   *adapter.EVMClient
	)
	for _, chain := range []types.ChainID{types.ChainEthereum, types.ChainGnosis} {
		chainCfg, ok := cfg.Chains.Chains[chain]
		if !ok || chainCfg.RPCPrimary == "" {
			logger.WithField("chain", chain).Warn("Skipping chain: no RPC endpoint configured")
			continue
		}

		provider, err := adapter.NewRPCProvider(chain, chainCfg.RPCPrimary, chainCfg.RPCSecondary)
		if err != nil {
			return nil, nil, fmt.Errorf("%s provider: %w", chain, err)
		}
		client, err := adapter.NewEVMClient(chain, provider, chainCfg.CallTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("%s client: %w", chain, err)
		}
		a.clients = append(a.clients, client)

		fetchers = append(fetchers, adapter.NewEVMBalanceFetcher(sources[chain], client, cfg.Chains.CallConcurrency))
		if chain == types.ChainGnosis {
			gnosis = client
		}

		logger.WithFields(map[string]interface{}{
			"chain":    chain,
			"failover": chainCfg.RPCSecondary != "",
		}).Info("Chain client initialized")
	}

	if cfg.Rmm.DataProvider == "" || gnosis == nil {
		return fetchers, nil, nil
	}
	rmm, err := adapter.NewRmmFetcher(gnosis, cfg.Rmm.DataProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("rmm fetcher: %w", err)
	}
	return fetchers, rmm, nil
}

// Close releases every connection the app opened
func (a *App) Close() {
	for _, client := range a.clients {
		client.Close()
	}
	if a.ClickHouse != nil {
		if err := a.ClickHouse.Close(); err != nil {
			logging.WithError(err).Warn("Error closing ClickHouse connection")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logging.WithError(err).Warn("Error closing Redis connection")
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
}
