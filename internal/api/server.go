// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/service"
)

// Service interfaces for dependency injection and testing

// CatalogServiceInterface defines the interface for catalog operations
type CatalogServiceInterface interface {
	GetCatalog(ctx context.Context) ([]models.ReferenceAsset, error)
	Refresh(ctx context.Context) ([]models.ReferenceAsset, error)
}

// PortfolioServiceInterface defines the interface for portfolio valuation
type PortfolioServiceInterface interface {
	GetPortfolio(ctx context.Context, input service.PortfolioInput) (*models.PortfolioSummary, error)
}

// MarketServiceInterface defines the interface for the market divergence table
type MarketServiceInterface interface {
	GetDivergence(ctx context.Context) ([]models.MarketRow, error)
}

// WalletServiceInterface defines the interface for tracked wallet operations
type WalletServiceInterface interface {
	AddWallet(ctx context.Context, input service.AddWalletInput) (*models.Wallet, error)
	ListWallets(ctx context.Context, userID string) ([]models.Wallet, error)
	RemoveWallet(ctx context.Context, userID, id string) error
	Addresses(ctx context.Context, userID string) ([]string, error)
}

// Server represents the HTTP API server.
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	catalogService   CatalogServiceInterface
	portfolioService PortfolioServiceInterface
	marketService    MarketServiceInterface
	walletService    WalletServiceInterface
	config           *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// Per client IP
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	catalogService CatalogServiceInterface,
	portfolioService PortfolioServiceInterface,
	marketService MarketServiceInterface,
	walletService WalletServiceInterface,
) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		catalogService:   catalogService,
		portfolioService: portfolioService,
		marketService:    marketService,
		walletService:    walletService,
		config:           config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Order matters: the request ID must exist before anything logs
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Catalog
	api.HandleFunc("/realtokens", s.handleGetCatalog).Methods("GET")
	api.HandleFunc("/realtokens/refresh", s.handleRefreshCatalog).Methods("POST")

	// Ad hoc wallet sets
	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/rents", s.handleGetRents).Methods("GET")
	api.HandleFunc("/portfolio/rmm", s.handleGetRmm).Methods("GET")

	// Tracked wallets
	api.HandleFunc("/users/{userId}/wallets", s.handleListWallets).Methods("GET")
	api.HandleFunc("/users/{userId}/wallets", s.handleAddWallet).Methods("POST")
	api.HandleFunc("/users/{userId}/wallets/{id}", s.handleRemoveWallet).Methods("DELETE")
	api.HandleFunc("/users/{userId}/portfolio", s.handleGetUserPortfolio).Methods("GET")

	api.HandleFunc("/market", s.handleGetMarket).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "realtoken-portfolio",
	})
}

// Handler exposes the routed handler, including middleware
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Infof("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
