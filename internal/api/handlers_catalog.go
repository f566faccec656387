package api

import (
	"net/http"
)

// handleGetCatalog handles GET /api/realtokens
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	assets, err := s.catalogService.GetCatalog(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assets)
}

// handleRefreshCatalog handles POST /api/realtokens/refresh
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	assets, err := s.catalogService.Refresh(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": len(assets),
	})
}
