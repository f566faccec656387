package api

import (
	"net/http"
)

// handleGetMarket handles GET /api/market
func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	rows, err := s.marketService.GetDivergence(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
