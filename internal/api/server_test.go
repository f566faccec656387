package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/service"
	"github.com/realtoken-portfolio/internal/types"
)

const (
	testWallet1 = "0x1111111111111111111111111111111111111111"
	testWallet2 = "0x2222222222222222222222222222222222222222"
)

// Mock services for testing
type mockCatalogService struct {
	getFunc     func(ctx context.Context) ([]models.ReferenceAsset, error)
	refreshFunc func(ctx context.Context) ([]models.ReferenceAsset, error)
}

func (m *mockCatalogService) GetCatalog(ctx context.Context) ([]models.ReferenceAsset, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx)
	}
	return []models.ReferenceAsset{{UUID: "asset-a", ShortName: "A Street", TokenPrice: 50}}, nil
}

func (m *mockCatalogService) Refresh(ctx context.Context) ([]models.ReferenceAsset, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return m.GetCatalog(ctx)
}

type mockPortfolioService struct {
	getFunc   func(ctx context.Context, input service.PortfolioInput) (*models.PortfolioSummary, error)
	lastInput service.PortfolioInput
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, input service.PortfolioInput) (*models.PortfolioSummary, error) {
	m.lastInput = input
	if m.getFunc != nil {
		return m.getFunc(ctx, input)
	}
	mode := input.RentMode
	if mode == "" {
		mode = types.RentGlobal
	}
	return &models.PortfolioSummary{
		Holdings: []models.AggregatedHolding{{ID: "asset-a", Amount: 2, Value: 100}},
		ValueBySource: map[types.BalanceSource]float64{
			types.SourceGnosis: 60,
			types.SourceRmm:    40,
		},
		TotalValue: 100,
		Rents:      models.RentSummary{Daily: 0.04, Weekly: 0.28, Monthly: 1.2, Yearly: 14.6},
		APY:        0.146,
		Rmm:        models.RmmExposure{TotalDeposit: 140, StableDeposit: 100, StableDebt: 20},
		RentMode:   mode,
	}, nil
}

type mockMarketService struct {
	getFunc func(ctx context.Context) ([]models.MarketRow, error)
}

func (m *mockMarketService) GetDivergence(ctx context.Context) ([]models.MarketRow, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx)
	}
	return []models.MarketRow{{
		ID:         "asset-a",
		ShortName:  "A Street",
		TokenPrice: 50,
		Divergence: models.MarketDivergence{Price: 55, Difference: 5, DifferencePercent: 10, Volume: 550},
	}}, nil
}

// mockWalletService keeps wallets in memory
type mockWalletService struct {
	wallets map[string][]models.Wallet
}

func (m *mockWalletService) AddWallet(ctx context.Context, input service.AddWalletInput) (*models.Wallet, error) {
	if input.Address == "" {
		return nil, apperrors.NewInvalidAddressError(input.Address)
	}
	for _, w := range m.wallets[input.UserID] {
		if w.Address == input.Address {
			return nil, apperrors.NewConflictError("wallet already registered")
		}
	}
	wallet := models.Wallet{
		ID:      fmt.Sprintf("wallet-%d", len(m.wallets[input.UserID])+1),
		UserID:  input.UserID,
		Address: input.Address,
		Label:   input.Label,
	}
	m.wallets[input.UserID] = append(m.wallets[input.UserID], wallet)
	return &wallet, nil
}

func (m *mockWalletService) ListWallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	return m.wallets[userID], nil
}

func (m *mockWalletService) RemoveWallet(ctx context.Context, userID, id string) error {
	for i, w := range m.wallets[userID] {
		if w.ID == id {
			m.wallets[userID] = append(m.wallets[userID][:i], m.wallets[userID][i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("wallet", id)
}

func (m *mockWalletService) Addresses(ctx context.Context, userID string) ([]string, error) {
	if len(m.wallets[userID]) == 0 {
		return nil, apperrors.NewNotFoundError("wallets of user", userID)
	}
	var out []string
	for _, w := range m.wallets[userID] {
		out = append(out, w.Address)
	}
	return out, nil
}

type testServer struct {
	*Server
	catalog   *mockCatalogService
	portfolio *mockPortfolioService
	market    *mockMarketService
	wallets   *mockWalletService
}

// Helper function to create a server backed by mock services
func createTestServer() *testServer {
	config := &ServerConfig{
		Host:              "localhost",
		Port:              "8080",
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}

	ts := &testServer{
		catalog:   &mockCatalogService{},
		portfolio: &mockPortfolioService{},
		market:    &mockMarketService{},
		wallets:   &mockWalletService{wallets: map[string][]models.Wallet{}},
	}
	ts.Server = &Server{
		router:           mux.NewRouter(),
		catalogService:   ts.catalog,
		portfolioService: ts.portfolio,
		marketService:    ts.market,
		walletService:    ts.wallets,
		config:           config,
	}
	ts.setupRouter()
	return ts
}

func (ts *testServer) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

// TestHealthEndpoint tests the health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response["status"])
	}
}

// TestGetCatalog_Success tests listing the reference catalog
func TestGetCatalog_Success(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/realtokens", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var assets []models.ReferenceAsset
	if err := json.NewDecoder(w.Body).Decode(&assets); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(assets) != 1 || assets[0].UUID != "asset-a" {
		t.Errorf("Unexpected catalog: %+v", assets)
	}
}

// TestRefreshCatalog_ProviderDown tests that a failing feed maps to 502
func TestRefreshCatalog_ProviderDown(t *testing.T) {
	server := createTestServer()
	server.catalog.refreshFunc = func(ctx context.Context) ([]models.ReferenceAsset, error) {
		return nil, apperrors.NewProviderError("catalog", fmt.Errorf("connection refused"))
	}

	w := server.do("POST", "/api/realtokens/refresh", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Error.Code == "" {
		t.Error("Expected an error code")
	}
}

// TestGetPortfolio_Success tests valuing an ad hoc wallet set
func TestGetPortfolio_Success(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/portfolio?addresses="+testWallet1+","+testWallet2+"&rentCalculation=Realtime", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary models.PortfolioSummary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.TotalValue != 100 {
		t.Errorf("Expected total value 100, got %v", summary.TotalValue)
	}

	input := server.portfolio.lastInput
	if len(input.Addresses) != 2 {
		t.Errorf("Expected 2 addresses, got %v", input.Addresses)
	}
	if input.RentMode != types.RentRealtime {
		t.Errorf("Expected realtime mode, got %q", input.RentMode)
	}
}

// TestGetPortfolio_RepeatedAddresses tests the repeated parameter form
func TestGetPortfolio_RepeatedAddresses(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/portfolio?addresses="+testWallet1+"&addresses="+testWallet2+"&asOf=2024-06-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	input := server.portfolio.lastInput
	if len(input.Addresses) != 2 {
		t.Errorf("Expected 2 addresses, got %v", input.Addresses)
	}
	if !input.AsOf.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected asOf %v", input.AsOf)
	}
}

// TestGetRents_Success tests the rent projection view
func TestGetRents_Success(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/portfolio/rents?addresses="+testWallet1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var view RentsView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Rents.Weekly != 0.28 || view.APY != 0.146 {
		t.Errorf("Unexpected rents view: %+v", view)
	}
	if view.RentMode != types.RentGlobal {
		t.Errorf("Expected global mode, got %q", view.RentMode)
	}
}

// TestGetRmm_Success tests the lending protocol view
func TestGetRmm_Success(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/portfolio/rmm?addresses="+testWallet1, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var view RmmView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Rmm.StableDebt != 20 || view.RmmValue != 40 {
		t.Errorf("Unexpected rmm view: %+v", view)
	}
}

// TestWallets_Lifecycle tests registering, valuing and removing wallets
func TestWallets_Lifecycle(t *testing.T) {
	server := createTestServer()

	body, _ := json.Marshal(map[string]interface{}{"address": testWallet1, "label": "cold"})
	w := server.do("POST", "/api/users/alice/wallets", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var wallet models.Wallet
	if err := json.NewDecoder(w.Body).Decode(&wallet); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	w = server.do("POST", "/api/users/alice/wallets", body)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate, got %d", w.Code)
	}

	w = server.do("GET", "/api/users/alice/wallets", nil)
	var wallets []models.Wallet
	if err := json.NewDecoder(w.Body).Decode(&wallets); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(wallets) != 1 {
		t.Errorf("Expected 1 wallet, got %d", len(wallets))
	}

	w = server.do("GET", "/api/users/alice/portfolio", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if got := server.portfolio.lastInput.Addresses; len(got) != 1 || got[0] != testWallet1 {
		t.Errorf("Expected the tracked wallet to be valued, got %v", got)
	}

	w = server.do("DELETE", "/api/users/alice/wallets/"+wallet.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	w = server.do("GET", "/api/users/alice/portfolio", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without wallets, got %d", w.Code)
	}
}

// TestGetMarket_Success tests the market divergence table
func TestGetMarket_Success(t *testing.T) {
	server := createTestServer()

	w := server.do("GET", "/api/market", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var rows []models.MarketRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(rows) != 1 || rows[0].Divergence.DifferencePercent != 10 {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}

// TestCORSHeaders tests that CORS headers are properly set
func TestCORSHeaders(t *testing.T) {
	server := createTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers to be set")
	}
}
