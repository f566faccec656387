package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/models"
	"github.com/realtoken-portfolio/internal/storage"
)

// tradeBatchSize bounds one ClickHouse insert
const tradeBatchSize = 5000

func newTradesCmd() *cobra.Command {
	tradesCmd := &cobra.Command{
		Use:   "trades",
		Short: "Manage the secondary market trade history",
	}

	tradesCmd.AddCommand(&cobra.Command{
		Use:   "import <file.json|->",
		Short: "Import trades from a JSON array into ClickHouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := readTrades(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, ctx, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.ClickHouse.Host == "" {
				return fmt.Errorf("CLICKHOUSE_HOST is not set")
			}

			db, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
			if err != nil {
				return fmt.Errorf("failed to connect to ClickHouse: %w", err)
			}
			defer db.Close()

			repo := storage.NewTradeRepository(db)
			for start := 0; start < len(trades); start += tradeBatchSize {
				end := min(start+tradeBatchSize, len(trades))
				if err := repo.InsertTrades(ctx, trades[start:end]); err != nil {
					return fmt.Errorf("insert trades %d-%d: %w", start, end, err)
				}
			}

			logging.FromContext(ctx).Infof("Imported %d trades", len(trades))
			return nil
		},
	})
	return tradesCmd
}

// readTrades decodes a JSON array of trades from a file, or stdin for "-".
// Contracts are lower-cased and trades without a hash or contract are rejected.
func readTrades(stdin io.Reader, name string) ([]models.Trade, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var trades []models.Trade
	if err := json.NewDecoder(r).Decode(&trades); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}

	for i := range trades {
		if trades[i].TxHash == "" || trades[i].Contract == "" {
			return nil, fmt.Errorf("trade %d: txHash and contract are required", i)
		}
		trades[i].Contract = strings.ToLower(strings.TrimSpace(trades[i].Contract))
	}
	return trades, nil
}
