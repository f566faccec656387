// Package config provides configuration management for the realtoken portfolio service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/realtoken-portfolio/internal/types"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Chains    ChainsConfig
	Catalog   CatalogConfig
	Market    MarketConfig
	Rmm       RmmConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration. An empty Host disables
// the trade history store.
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainsConfig holds the RPC endpoints of the two chains balances are read from
type ChainsConfig struct {
	Chains map[types.ChainID]ChainConfig
	// CallConcurrency bounds the balanceOf calls in flight per wallet
	CallConcurrency int
}

// ChainConfig holds configuration for a specific chain
type ChainConfig struct {
	RPCPrimary   string
	RPCSecondary string
	CallTimeout  time.Duration
}

// CatalogConfig holds the reference catalog feed configuration
type CatalogConfig struct {
	URL        string
	APIKey     string
	RefreshTTL time.Duration
}

// MarketConfig holds secondary market statistics configuration
type MarketConfig struct {
	StatisticsURL string
	WindowDays    int
	Concurrency   int
	FetchTimeout  time.Duration
}

// RmmConfig holds the lending protocol configuration on Gnosis. An empty
// DataProvider disables the rmm balance source.
type RmmConfig struct {
	DataProvider string
	// StableReserves are the stablecoin reserves whose debt is reported
	StableReserves []string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds per-client API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "realtoken"),
				User:           getEnv("POSTGRES_USER", "realtoken"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", ""),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "realtoken"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Catalog: CatalogConfig{
			URL:        getEnv("CATALOG_URL", "https://api.realt.community/v1/token"),
			APIKey:     getEnv("CATALOG_API_KEY", ""),
			RefreshTTL: getEnvAsDuration("CATALOG_REFRESH_TTL", time.Hour),
		},
		Market: MarketConfig{
			StatisticsURL: getEnv("MARKET_STATISTICS_URL", ""),
			WindowDays:    getEnvAsInt("MARKET_WINDOW_DAYS", 30),
			Concurrency:   getEnvAsInt("MARKET_CONCURRENCY", 8),
			FetchTimeout:  getEnvAsDuration("MARKET_FETCH_TIMEOUT", 10*time.Second),
		},
		Rmm: RmmConfig{
			DataProvider:   getEnv("RMM_DATA_PROVIDER", ""),
			StableReserves: getEnvAsList("RMM_STABLE_RESERVES"),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Chains = loadChainConfigs()

	return config, nil
}

// loadChainConfigs reads ETHEREUM_* and GNOSIS_* endpoints
func loadChainConfigs() ChainsConfig {
	chains := make(map[types.ChainID]ChainConfig)
	for _, chain := range []types.ChainID{types.ChainEthereum, types.ChainGnosis} {
		prefix := strings.ToUpper(string(chain))
		chains[chain] = ChainConfig{
			RPCPrimary:   getEnv(prefix+"_RPC_PRIMARY", ""),
			RPCSecondary: getEnv(prefix+"_RPC_SECONDARY", ""),
			CallTimeout:  getEnvAsDuration(prefix+"_RPC_TIMEOUT", 15*time.Second),
		}
	}
	return ChainsConfig{
		Chains:          chains,
		CallConcurrency: getEnvAsInt("CHAIN_CALL_CONCURRENCY", 16),
	}
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	if c.Catalog.URL == "" {
		return fmt.Errorf("CATALOG_URL must not be empty")
	}
	if c.Market.WindowDays <= 0 {
		return fmt.Errorf("MARKET_WINDOW_DAYS must be positive, got %d", c.Market.WindowDays)
	}
	if c.Market.Concurrency <= 0 {
		return fmt.Errorf("MARKET_CONCURRENCY must be positive, got %d", c.Market.Concurrency)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	configured := 0
	for _, chain := range c.Chains.Chains {
		if chain.RPCPrimary != "" {
			configured++
		}
	}
	if configured == 0 {
		return fmt.Errorf("at least one of ETHEREUM_RPC_PRIMARY or GNOSIS_RPC_PRIMARY must be set")
	}
	if c.Rmm.DataProvider != "" && c.Chains.Chains[types.ChainGnosis].RPCPrimary == "" {
		return fmt.Errorf("RMM_DATA_PROVIDER requires GNOSIS_RPC_PRIMARY")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
