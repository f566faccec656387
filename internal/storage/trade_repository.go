package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/realtoken-portfolio/internal/models"
)

// TradeRepository reads and writes secondary market trades in ClickHouse
type TradeRepository struct {
	db  *ClickHouseDB
	now func() time.Time
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *ClickHouseDB) *TradeRepository {
	return &TradeRepository{db: db, now: time.Now}
}

// InsertTrades appends trades in one batch. Replayed trades are collapsed
// by the ReplacingMergeTree on tx_hash.
func (r *TradeRepository) InsertTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO yam_trades (tx_hash, contract, quantity, price, timestamp)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, t := range trades {
		if err := batch.Append(strings.ToLower(t.TxHash), strings.ToLower(t.Contract), t.Quantity, t.Price, t.Timestamp.UTC()); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// Statistics aggregates the trades of contract since windowDays before now
func (r *TradeRepository) Statistics(ctx context.Context, contract string, windowDays int, now time.Time) (models.TradeStatistics, error) {
	query := `
		SELECT
			sum(quantity),
			sum(quantity * price),
			groupUniqArray(toUInt32(toUnixTimestamp(toStartOfDay(timestamp, 'UTC'))))
		FROM yam_trades FINAL
		WHERE contract = ? AND timestamp >= ?
	`

	since := now.UTC().AddDate(0, 0, -windowDays)

	var quantity, volume float64
	var days []uint32
	row := r.db.Conn().QueryRow(ctx, query, strings.ToLower(contract), since)
	if err := row.Scan(&quantity, &volume, &days); err != nil {
		return models.EmptyTradeStatistics(), fmt.Errorf("failed to aggregate trades: %w", err)
	}

	return models.TradeStatistics{
		Quantity: quantity,
		Volume:   volume,
		Days:     sortedDays(days),
	}, nil
}

// FetchStatistics aggregates the trailing window ending now
func (r *TradeRepository) FetchStatistics(ctx context.Context, contract string, windowDays int) (models.TradeStatistics, error) {
	return r.Statistics(ctx, contract, windowDays, r.now())
}

func sortedDays(days []uint32) []int64 {
	out := make([]int64, 0, len(days))
	for _, d := range days {
		out = append(out, int64(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
