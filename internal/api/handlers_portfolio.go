package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/service"
	"github.com/realtoken-portfolio/internal/types"
)

// RentsView is the rent projection part of a portfolio
type RentsView struct {
	Rents    models.RentSummary      `json:"rents"`
	APY      float64                 `json:"apy"`
	RentMode types.RentCalculation   `json:"rentCalculation"`
	Metrics  []models.HoldingMetrics `json:"metrics"`
}

// RmmView is the lending protocol part of a portfolio
type RmmView struct {
	Rmm      models.RmmExposure `json:"rmm"`
	RmmValue float64            `json:"rmmValue"`
}

// parseAddresses accepts ?addresses=a,b as well as repeated parameters
func parseAddresses(r *http.Request) []string {
	var addresses []string
	for _, value := range r.URL.Query()["addresses"] {
		for _, addr := range strings.Split(value, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				addresses = append(addresses, addr)
			}
		}
	}
	return addresses
}

// portfolioInput builds the valuation input shared by the portfolio routes.
// An unknown rentCalculation is passed through for the service to reject.
func portfolioInput(r *http.Request, addresses []string) (service.PortfolioInput, error) {
	query := r.URL.Query()
	input := service.PortfolioInput{
		Addresses: addresses,
		RentMode:  types.RentCalculation(strings.ToLower(query.Get("rentCalculation"))),
	}

	if asOf := query.Get("asOf"); asOf != "" {
		t, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return input, err
		}
		input.AsOf = t
	}
	return input, nil
}

func (s *Server) portfolioFor(w http.ResponseWriter, r *http.Request) (*models.PortfolioSummary, bool) {
	input, err := portfolioInput(r, parseAddresses(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "asOf must be a YYYY-MM-DD date", nil)
		return nil, false
	}

	summary, err := s.portfolioService.GetPortfolio(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	return summary, true
}

// handleGetPortfolio handles GET /api/portfolio?addresses=...
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.portfolioFor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleGetRents handles GET /api/portfolio/rents?addresses=...
func (s *Server) handleGetRents(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.portfolioFor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, RentsView{
		Rents:    summary.Rents,
		APY:      summary.APY,
		RentMode: summary.RentMode,
		Metrics:  summary.Metrics,
	})
}

// handleGetRmm handles GET /api/portfolio/rmm?addresses=...
func (s *Server) handleGetRmm(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.portfolioFor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, RmmView{
		Rmm:      summary.Rmm,
		RmmValue: summary.ValueBySource[types.SourceRmm],
	})
}

// handleGetUserPortfolio handles GET /api/users/{userId}/portfolio, valuing
// every wallet the user tracks
func (s *Server) handleGetUserPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	addresses, err := s.walletService.Addresses(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	input, err := portfolioInput(r, addresses)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "asOf must be a YYYY-MM-DD date", nil)
		return
	}

	summary, err := s.portfolioService.GetPortfolio(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
