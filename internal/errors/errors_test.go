package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/realtoken-portfolio/internal/types"
)

func TestConstructorsCarryStatusAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		err      *CategorizedError
		status   int
		category ErrorCategory
		code     string
	}{
		{"invalid address", NewInvalidAddressError("0x12"), http.StatusBadRequest, CategoryUserInput, "INVALID_ADDRESS"},
		{"invalid parameter", NewInvalidParameterError("rentCalculation", "unknown mode"), http.StatusBadRequest, CategoryValidation, "INVALID_PARAMETER"},
		{"not found", NewNotFoundError("wallet", "42"), http.StatusNotFound, CategoryNotFound, "NOT_FOUND"},
		{"provider", NewProviderError("gnosis-rpc", context.DeadlineExceeded), http.StatusBadGateway, CategoryProvider, "PROVIDER_ERROR"},
		{"database", NewDatabaseError("list wallets", fmt.Errorf("conn refused")), http.StatusInternalServerError, CategoryDatabase, "DATABASE_ERROR"},
		{"cache", NewCacheError("get catalog", fmt.Errorf("timeout")), http.StatusInternalServerError, CategoryCache, "CACHE_ERROR"},
		{"rate limit", NewRateLimitError(1), http.StatusTooManyRequests, CategoryRateLimit, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.code, tt.err.ToServiceError().Code)
		})
	}
}

func TestCategorizeFindsWrappedErrors(t *testing.T) {
	inner := NewProviderError("catalog", fmt.Errorf("502"))
	wrapped := fmt.Errorf("refresh catalog: %w", inner)

	assert.Same(t, inner, Categorize(wrapped))
	assert.True(t, IsCategory(wrapped, CategoryProvider))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatusCode(wrapped))
	assert.ErrorIs(t, NewProviderError("rpc", context.Canceled), context.Canceled)
}

func TestCategorizeServiceError(t *testing.T) {
	catErr := Categorize(&types.ServiceError{Code: "WALLET_NOT_FOUND", Message: "missing"})
	assert.Equal(t, CategoryNotFound, catErr.Category)
	assert.Equal(t, http.StatusNotFound, catErr.StatusCode)

	catErr = Categorize(&types.ServiceError{Code: "SOMETHING_ELSE"})
	assert.Equal(t, CategorySystem, catErr.Category)
}

func TestCategorizeUnknownAndNil(t *testing.T) {
	assert.Nil(t, Categorize(nil))
	assert.Equal(t, "INTERNAL_ERROR", Categorize(fmt.Errorf("boom")).Code)
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatusCode(fmt.Errorf("boom")))
}

func TestRetryAndUserClassification(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError("rpc", nil)))
	assert.True(t, IsRetryable(NewServiceUnavailableError("clickhouse")))
	assert.False(t, IsRetryable(NewInternalError("bug", nil)))
	assert.False(t, IsRetryable(NewInvalidAddressError("x")))
	assert.False(t, IsRetryable(nil))

	assert.True(t, IsUserError(NewNotFoundError("wallet", "1")))
	assert.False(t, IsUserError(NewDatabaseError("insert", nil)))
}
