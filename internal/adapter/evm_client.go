package adapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/retry"
	"github.com/realtoken-portfolio/internal/types"
)

type contractBackend interface {
	ethereum.ContractCaller
	Close()
}

type dialFunc func(ctx context.Context, url string) (contractBackend, error)

func dialEthclient(ctx context.Context, url string) (contractBackend, error) {
	return ethclient.DialContext(ctx, url)
}

// EVMClient is an ethereum.ContractCaller that retries calls and fails over
// between the endpoints of its DataProvider
type EVMClient struct {
	chain       types.ChainID
	provider    DataProvider
	dial        dialFunc
	callTimeout time.Duration
	retryConfig *retry.RetryConfig

	mu      sync.Mutex
	backend contractBackend
	url     string
}

// NewEVMClient creates a client for chain. Connections are opened lazily.
func NewEVMClient(chain types.ChainID, provider DataProvider, callTimeout time.Duration) (*EVMClient, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &EVMClient{
		chain:       chain,
		provider:    provider,
		dial:        dialEthclient,
		callTimeout: callTimeout,
		retryConfig: retry.DefaultRetryConfig(),
	}, nil
}

// Chain returns the chain this client reads from
func (c *EVMClient) Chain() types.ChainID {
	return c.chain
}

// backendFor returns a connection to the provider's current URL, redialling
// after a failover
func (c *EVMClient) backendFor(ctx context.Context) (contractBackend, error) {
	url, err := c.provider.GetCurrentURL()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil && c.url == url {
		return c.backend, nil
	}
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}

	backend, err := c.dial(ctx, url)
	if err != nil {
		return nil, NewAdapterError(c.chain, "dial", err, map[string]interface{}{"rpcURL": url})
	}
	c.backend = backend
	c.url = url
	return backend, nil
}

// CallContract executes an eth_call, retrying transient failures
func (c *EVMClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := retry.Do(ctx, c.retryConfig, func(ctx context.Context, attempt int) error {
		backend, err := c.backendFor(ctx)
		if err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		start := time.Now()
		result, err := backend.CallContract(callCtx, msg, blockNumber)
		if err != nil {
			c.provider.RecordFailure(err)
			if isRevert(err) {
				return retry.Permanent(err)
			}
			if shouldFailover(err) {
				if ferr := c.provider.Failover(); ferr == nil {
					logging.FromContext(ctx).WithFields(map[string]interface{}{
						"chain":   c.chain,
						"attempt": attempt,
					}).Warn("RPC call failed, switched endpoint")
				}
			}
			return err
		}

		c.provider.RecordSuccess(time.Since(start))
		out = result
		return nil
	})
	return out, err
}

// Close releases the current connection
func (c *EVMClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// shouldFailover determines if an error warrants switching endpoint
func shouldFailover(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit", "too many requests", "429",
		"timeout", "deadline exceeded",
		"connection refused", "connection reset", "no such host",
		"502", "503",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
