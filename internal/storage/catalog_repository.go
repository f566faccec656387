package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/realtoken-portfolio/internal/models"
)

// CatalogRepository persists the last fetched reference catalog so the
// service can start without the remote feed
type CatalogRepository struct {
	db *PostgresDB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *PostgresDB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const upsertRealtokenQuery = `
	INSERT INTO realtokens (
		uuid, short_name, full_name, symbol, token_price,
		net_rent_day_per_token, net_rent_month_per_token, net_rent_year_per_token,
		annual_percentage_yield, total_tokens, total_units, rented_units,
		total_investment, gross_rent_month, subsidy_status, subsidy_status_value,
		rent_start_date, is_rmm_available, ethereum_contract, gnosis_contract,
		xdai_contract, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (uuid) DO UPDATE SET
		short_name = EXCLUDED.short_name,
		full_name = EXCLUDED.full_name,
		symbol = EXCLUDED.symbol,
		token_price = EXCLUDED.token_price,
		net_rent_day_per_token = EXCLUDED.net_rent_day_per_token,
		net_rent_month_per_token = EXCLUDED.net_rent_month_per_token,
		net_rent_year_per_token = EXCLUDED.net_rent_year_per_token,
		annual_percentage_yield = EXCLUDED.annual_percentage_yield,
		total_tokens = EXCLUDED.total_tokens,
		total_units = EXCLUDED.total_units,
		rented_units = EXCLUDED.rented_units,
		total_investment = EXCLUDED.total_investment,
		gross_rent_month = EXCLUDED.gross_rent_month,
		subsidy_status = EXCLUDED.subsidy_status,
		subsidy_status_value = EXCLUDED.subsidy_status_value,
		rent_start_date = EXCLUDED.rent_start_date,
		is_rmm_available = EXCLUDED.is_rmm_available,
		ethereum_contract = EXCLUDED.ethereum_contract,
		gnosis_contract = EXCLUDED.gnosis_contract,
		xdai_contract = EXCLUDED.xdai_contract,
		updated_at = EXCLUDED.updated_at
`

// ReplaceAll makes the stored catalog equal to assets in one transaction
func (r *CatalogRepository) ReplaceAll(ctx context.Context, assets []models.ReferenceAsset) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(assets))
	for i := range assets {
		a := &assets[i]
		var rentStart *time.Time
		if !a.RentStartDate.IsZero() {
			rentStart = &a.RentStartDate
		}
		batch.Queue(upsertRealtokenQuery,
			a.UUID, a.ShortName, a.FullName, a.Symbol, a.TokenPrice,
			a.NetRentDayPerToken, a.NetRentMonthPerToken, a.NetRentYearPerToken,
			a.AnnualPercentageYield, a.TotalTokens, a.TotalUnits, a.RentedUnits,
			a.TotalInvestment, a.GrossRentMonth, a.SubsidyStatus, a.SubsidyStatusValue,
			rentStart, a.IsRmmAvailable, a.EthereumContract, a.GnosisContract,
			a.XDaiContract, now,
		)
		ids = append(ids, a.UUID)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert realtokens: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM realtokens WHERE NOT (uuid = ANY($1))`, ids); err != nil {
		return fmt.Errorf("failed to prune realtokens: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// List returns the stored catalog ordered by UUID
func (r *CatalogRepository) List(ctx context.Context) ([]models.ReferenceAsset, error) {
	query := `
		SELECT uuid, short_name, full_name, symbol, token_price,
		       net_rent_day_per_token, net_rent_month_per_token, net_rent_year_per_token,
		       annual_percentage_yield, total_tokens, total_units, rented_units,
		       total_investment, gross_rent_month, subsidy_status, subsidy_status_value,
		       rent_start_date, is_rmm_available, ethereum_contract, gnosis_contract,
		       xdai_contract
		FROM realtokens
		ORDER BY uuid
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list realtokens: %w", err)
	}
	defer rows.Close()

	assets := make([]models.ReferenceAsset, 0)
	for rows.Next() {
		var a models.ReferenceAsset
		var rentStart *time.Time
		if err := rows.Scan(
			&a.UUID, &a.ShortName, &a.FullName, &a.Symbol, &a.TokenPrice,
			&a.NetRentDayPerToken, &a.NetRentMonthPerToken, &a.NetRentYearPerToken,
			&a.AnnualPercentageYield, &a.TotalTokens, &a.TotalUnits, &a.RentedUnits,
			&a.TotalInvestment, &a.GrossRentMonth, &a.SubsidyStatus, &a.SubsidyStatusValue,
			&rentStart, &a.IsRmmAvailable, &a.EthereumContract, &a.GnosisContract,
			&a.XDaiContract,
		); err != nil {
			return nil, fmt.Errorf("failed to scan realtoken: %w", err)
		}
		if rentStart != nil {
			a.RentStartDate = rentStart.UTC()
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realtokens: %w", err)
	}
	return assets, nil
}

// LastUpdated returns when the catalog was last replaced, zero if never
func (r *CatalogRepository) LastUpdated(ctx context.Context) (time.Time, error) {
	var updated *time.Time
	if err := r.db.Pool().QueryRow(ctx, `SELECT max(updated_at) FROM realtokens`).Scan(&updated); err != nil {
		return time.Time{}, fmt.Errorf("failed to read catalog age: %w", err)
	}
	if updated == nil {
		return time.Time{}, nil
	}
	return updated.UTC(), nil
}
