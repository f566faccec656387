package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/realtoken-portfolio/internal/models"
)

var (
	// ErrWalletExists is returned when a user registers the same address twice
	ErrWalletExists = errors.New("wallet already registered")
	// ErrWalletNotFound is returned when deleting an unknown wallet
	ErrWalletNotFound = errors.New("wallet not found")
)

const uniqueViolation = "23505"

// WalletRepository persists the addresses each user tracks
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create stores a wallet, assigning ID and CreatedAt. The address is stored
// lower-cased.
func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	wallet.Address = strings.ToLower(wallet.Address)
	wallet.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO wallets (id, user_id, address, label, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Address,
		wallet.Label,
		wallet.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrWalletExists
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// ListByUser returns the wallets of a user, oldest first
func (r *WalletRepository) ListByUser(ctx context.Context, userID string) ([]models.Wallet, error) {
	query := `
		SELECT id, user_id, address, label, created_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY created_at ASC, address ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]models.Wallet, 0)
	for rows.Next() {
		var w models.Wallet
		var id uuid.UUID
		if err := rows.Scan(&id, &w.UserID, &w.Address, &w.Label, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		w.ID = id.String()
		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}

	return wallets, nil
}

// GetByID returns one wallet of a user
func (r *WalletRepository) GetByID(ctx context.Context, userID, id string) (*models.Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrWalletNotFound
	}

	query := `
		SELECT user_id, address, label, created_at
		FROM wallets
		WHERE id = $1 AND user_id = $2
	`

	w := models.Wallet{ID: walletID.String()}
	err = r.db.Pool().QueryRow(ctx, query, walletID, userID).Scan(&w.UserID, &w.Address, &w.Label, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// Delete removes a wallet of a user
func (r *WalletRepository) Delete(ctx context.Context, userID, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrWalletNotFound
	}

	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM wallets WHERE id = $1 AND user_id = $2`, walletID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}
