package service

import (
	"context"
	"errors"

	apperrors "github.com/realtoken-portfolio/internal/errors"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
)

// WalletStore persists tracked wallets
type WalletStore interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	ListByUser(ctx context.Context, userID string) ([]models.Wallet, error)
	GetByID(ctx context.Context, userID, id string) (*models.Wallet, error)
	Delete(ctx context.Context, userID, id string) error
}

// WalletService manages the addresses a user tracks
type WalletService struct {
	store WalletStore
}

// NewWalletService creates a new wallet service
func NewWalletService(store WalletStore) *WalletService {
	return &WalletService{store: store}
}

// AddWalletInput represents input for registering a wallet
type AddWalletInput struct {
	UserID  string  `json:"userId"`
	Address string  `json:"address"`
	Label   *string `json:"label,omitempty"`
}

// AddWallet registers an address for a user
func (s *WalletService) AddWallet(ctx context.Context, input AddWalletInput) (*models.Wallet, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInvalidParameterError("userId", "must not be empty")
	}
	addresses, err := normalizeAddresses([]string{input.Address})
	if err != nil {
		return nil, err
	}

	wallet := &models.Wallet{UserID: input.UserID, Address: addresses[0], Label: input.Label}
	if err := s.store.Create(ctx, wallet); err != nil {
		if errors.Is(err, storage.ErrWalletExists) {
			return nil, apperrors.NewConflictError("wallet already registered: " + wallet.Address)
		}
		return nil, apperrors.NewDatabaseError("create wallet", err)
	}
	return wallet, nil
}

// ListWallets returns the wallets of a user
func (s *WalletService) ListWallets(ctx context.Context, userID string) ([]models.Wallet, error) {
	wallets, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list wallets", err)
	}
	return wallets, nil
}

// Addresses returns the tracked addresses of a user. A user without wallets
// is a not-found error so callers do not value an empty set.
func (s *WalletService) Addresses(ctx context.Context, userID string) ([]string, error) {
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, apperrors.NewNotFoundError("wallets of user", userID)
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}
	return addresses, nil
}

// RemoveWallet deletes a wallet of a user
func (s *WalletService) RemoveWallet(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return apperrors.NewNotFoundError("wallet", id)
		}
		return apperrors.NewDatabaseError("delete wallet", err)
	}
	return nil
}
