package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/realtoken-portfolio/internal/circuitbreaker"
	"github.com/realtoken-portfolio/internal/retry"
)

// jsonClient performs GET requests returning JSON, retrying transient failures
type jsonClient struct {
	name        string
	client      *http.Client
	headers     map[string]string
	retryConfig *retry.RetryConfig
	// breaker is optional; when open, requests fail without reaching the remote
	breaker *circuitbreaker.CircuitBreaker
}

func newJSONClient(name string, timeout time.Duration, headers map[string]string) *jsonClient {
	return &jsonClient{
		name:        name,
		client:      &http.Client{Timeout: timeout},
		headers:     headers,
		retryConfig: retry.DefaultRetryConfig(),
	}
}

// withBreaker guards the client with a circuit breaker. Only transient
// failures count against the remote.
func (c *jsonClient) withBreaker(cfg *circuitbreaker.Config) *jsonClient {
	cfg.IsFailure = func(err error) bool { return !retry.IsPermanent(err) }
	c.breaker = circuitbreaker.NewCircuitBreaker(cfg)
	return c
}

// getJSON decodes the body of url into out. 429 and 5xx responses are
// retried, other non-200 responses fail immediately.
func (c *jsonClient) getJSON(ctx context.Context, url string, out interface{}) error {
	return retry.Do(ctx, c.retryConfig, func(ctx context.Context, attempt int) error {
		if c.breaker == nil {
			return c.get(ctx, url, out)
		}
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.get(ctx, url, out)
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return retry.Permanent(fmt.Errorf("%s: %w", c.name, err))
		}
		return err
	})
}

func (c *jsonClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrProviderRateLimit
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s HTTP error: %d", c.name, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return retry.Permanent(fmt.Errorf("%s HTTP error: %d - %s", c.name, resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode %s response: %w", c.name, err))
	}
	return nil
}
