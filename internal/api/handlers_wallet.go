package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/realtoken-portfolio/internal/service"
)

// handleListWallets handles GET /api/users/{userId}/wallets
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.walletService.ListWallets(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wallets)
}

// handleAddWallet handles POST /api/users/{userId}/wallets
func (s *Server) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string  `json:"address"`
		Label   *string `json:"label,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	wallet, err := s.walletService.AddWallet(r.Context(), service.AddWalletInput{
		UserID:  mux.Vars(r)["userId"],
		Address: req.Address,
		Label:   req.Label,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, wallet)
}

// handleRemoveWallet handles DELETE /api/users/{userId}/wallets/{id}
func (s *Server) handleRemoveWallet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.walletService.RemoveWallet(r.Context(), vars["userId"], vars["id"]); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
