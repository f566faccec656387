package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/realtoken-portfolio/internal/types"
)

// DataProvider hands out the RPC endpoint a chain client should talk to and
// tracks its health so callers can fail over.
type DataProvider interface {
	// GetCurrentURL returns the currently active RPC endpoint URL
	GetCurrentURL() (string, error)

	// Failover switches to the other endpoint.
	// Returns error if no alternative is configured.
	Failover() error

	RecordSuccess(duration time.Duration)
	RecordFailure(err error)

	// GetHealth returns the current health status of the provider
	GetHealth() *ProviderHealth

	// Reset resets the provider to use the primary endpoint
	Reset()
}

// ProviderHealth represents the health status of a data provider
type ProviderHealth struct {
	Chain            types.ChainID `json:"chain"`
	CurrentURL       string        `json:"currentUrl"`
	TotalRequests    int64         `json:"totalRequests"`
	FailedReqs       int64         `json:"failedRequests"`
	SuccessRate      float64       `json:"successRate"`
	AverageLatency   time.Duration `json:"averageLatency"`
	LastFailure      time.Time     `json:"lastFailure"`
	ConsecutiveFails int           `json:"consecutiveFails"`
	IsHealthy        bool          `json:"isHealthy"`
}

// RPCProvider implements DataProvider for a primary RPC endpoint with an
// optional secondary
type RPCProvider struct {
	mu sync.RWMutex

	chain        types.ChainID
	primaryURL   string
	secondaryURL string
	currentURL   string

	totalRequests    int64
	successfulReqs   int64
	failedReqs       int64
	totalLatency     time.Duration
	lastFailure      time.Time
	consecutiveFails int

	maxConsecutiveFails int
}

// NewRPCProvider creates a new RPC provider with primary and optional secondary URLs
func NewRPCProvider(chain types.ChainID, primaryURL, secondaryURL string) (*RPCProvider, error) {
	if primaryURL == "" {
		return nil, fmt.Errorf("primary URL for %s cannot be empty", chain)
	}

	return &RPCProvider{
		chain:               chain,
		primaryURL:          primaryURL,
		secondaryURL:        secondaryURL,
		currentURL:          primaryURL,
		maxConsecutiveFails: 5,
	}, nil
}

// Chain returns the chain served by this provider
func (p *RPCProvider) Chain() types.ChainID {
	return p.chain
}

// GetCurrentURL returns the currently active RPC endpoint URL
func (p *RPCProvider) GetCurrentURL() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.currentURL == "" {
		return "", fmt.Errorf("no active URL configured")
	}
	return p.currentURL, nil
}

// Failover toggles between primary and secondary
func (p *RPCProvider) Failover() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.secondaryURL == "" {
		return fmt.Errorf("no secondary provider configured for %s", p.chain)
	}
	if p.currentURL == p.primaryURL {
		p.currentURL = p.secondaryURL
	} else {
		p.currentURL = p.primaryURL
	}
	p.consecutiveFails = 0
	return nil
}

// RecordSuccess records a successful request for health tracking
func (p *RPCProvider) RecordSuccess(duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalRequests++
	p.successfulReqs++
	p.totalLatency += duration
	p.consecutiveFails = 0
}

// RecordFailure records a failed request for health tracking
func (p *RPCProvider) RecordFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalRequests++
	p.failedReqs++
	p.lastFailure = time.Now()
	p.consecutiveFails++
}

// GetHealth returns the current health status of the provider
func (p *RPCProvider) GetHealth() *ProviderHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var successRate float64
	if p.totalRequests > 0 {
		successRate = float64(p.successfulReqs) / float64(p.totalRequests)
	}

	var avgLatency time.Duration
	if p.successfulReqs > 0 {
		avgLatency = p.totalLatency / time.Duration(p.successfulReqs)
	}

	return &ProviderHealth{
		Chain:            p.chain,
		CurrentURL:       p.currentURL,
		TotalRequests:    p.totalRequests,
		FailedReqs:       p.failedReqs,
		SuccessRate:      successRate,
		AverageLatency:   avgLatency,
		LastFailure:      p.lastFailure,
		ConsecutiveFails: p.consecutiveFails,
		IsHealthy:        p.consecutiveFails < p.maxConsecutiveFails,
	}
}

// Reset resets the provider to use the primary endpoint
func (p *RPCProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentURL = p.primaryURL
	p.consecutiveFails = 0
}
