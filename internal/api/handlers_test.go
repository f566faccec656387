package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/service"
)

// TestAddWallet_InvalidJSON tests handling of malformed JSON
func TestAddWallet_InvalidJSON(t *testing.T) {
	server := createTestServer()

	w := server.do("POST", "/api/users/alice/wallets", []byte("invalid json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestAddWallet_UnknownField tests that unknown body fields are rejected
func TestAddWallet_UnknownField(t *testing.T) {
	server := createTestServer()

	body, _ := json.Marshal(map[string]string{"address": testWallet1, "chain": "gnosis"})
	w := server.do("POST", "/api/users/alice/wallets", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestRemoveWallet_NotFound tests removing an unknown wallet
func TestRemoveWallet_NotFound(t *testing.T) {
	server := createTestServer()

	w := server.do("DELETE", "/api/users/alice/wallets/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// TestGetPortfolio_ServiceErrors tests the status code of each error category
func TestGetPortfolio_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid address",
			err:      apperrors.NewInvalidAddressError("0x123"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown rent mode",
			err:      apperrors.NewInvalidParameterError("rentCalculation", "unknown mode"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "all sources down",
			err:      apperrors.NewProviderError("balances", io.ErrUnexpectedEOF),
			expected: http.StatusBadGateway,
		},
		{
			name:     "uncategorized",
			err:      io.ErrClosedPipe,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createTestServer()
			server.portfolio.getFunc = func(ctx context.Context, input service.PortfolioInput) (*models.PortfolioSummary, error) {
				return nil, tt.err
			}

			w := server.do("GET", "/api/portfolio?addresses="+testWallet1, nil)
			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Error.Message == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

// TestGetPortfolio_InvalidAsOf tests that a malformed date is rejected before valuation
func TestGetPortfolio_InvalidAsOf(t *testing.T) {
	server := createTestServer()
	called := false
	server.portfolio.getFunc = func(ctx context.Context, input service.PortfolioInput) (*models.PortfolioSummary, error) {
		called = true
		return &models.PortfolioSummary{}, nil
	}

	w := server.do("GET", "/api/portfolio?addresses="+testWallet1+"&asOf=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if called {
		t.Error("Expected the service not to be called")
	}
}

// TestParseAddresses tests both address list forms and blank entries
func TestParseAddresses(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/portfolio?addresses=a,%20b,,&addresses=c", nil)
	got := parseAddresses(req)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

// TestRequestIDMiddleware tests that request IDs are generated or propagated
func TestRequestIDMiddleware(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/health", nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request ID")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected propagated request ID, got %q", got)
	}
}

// TestRateLimitMiddleware tests that a client is throttled after its burst
func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/market", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
			t.Error("Expected Retry-After header")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Unexpected status sequence %v", codes)
	}

	// another client has its own bucket
	req := httptest.NewRequest("GET", "/api/market", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for another client, got %d", w.Code)
	}
}

// TestClientIP tests forwarded and direct client addresses
func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.10:4000"
	if got := clientIP(req); got != "192.168.1.10" {
		t.Errorf("Expected remote host, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("Expected first forwarded hop, got %q", got)
	}
}

// TestRecoveryMiddleware tests that panics become 500 responses
func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

// TestCompressionMiddleware tests gzip encoding when accepted
func TestCompressionMiddleware(t *testing.T) {
	server := createTestServer()

	req := httptest.NewRequest("GET", "/api/market", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatal("Expected gzip encoding")
	}
	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open gzip body: %v", err)
	}
	var rows []models.MarketRow
	if err := json.NewDecoder(gz).Decode(&rows); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected 1 row, got %d", len(rows))
	}
}
