// Package main provides the realt command line tool: ad hoc valuations,
// the market table, migrations and trade history imports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/realtoken-portfolio/internal/app"
	"github.com/realtoken-portfolio/internal/config"
	"github.com/realtoken-portfolio/internal/logging"
	"github.com/realtoken-portfolio/internal/service"
	"github.com/realtoken-portfolio/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Command failed")
	}
}

func newRootCmd() *cobra.Command {
	var ephemeral bool

	rootCmd := &cobra.Command{
		Use:           "realt",
		Short:         "Value realtoken portfolios from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Skip Postgres and Redis, reading the catalog from the remote feed")

	rootCmd.AddCommand(
		newPortfolioCmd(&ephemeral),
		newMarketCmd(&ephemeral),
		newCatalogCmd(),
		newMigrateCmd(),
		newTradesCmd(),
	)
	return rootCmd
}

// loadConfig loads and validates configuration and sets up logging on stderr
// so stdout carries only command output
func loadConfig() (*config.Config, context.Context, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.SetOutput(os.Stderr)

	return cfg, logging.WithLogger(context.Background(), logger), nil
}

func buildApp(ephemeral bool) (*app.App, context.Context, error) {
	cfg, ctx, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, app.Options{Ephemeral: ephemeral})
	if err != nil {
		return nil, nil, err
	}
	return a, ctx, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPortfolioCmd(ephemeral *bool) *cobra.Command {
	var (
		addresses []string
		rentMode  string
		asOf      string
	)

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Value a set of wallets",
		Example: "  realt portfolio --address 0xabc... --address 0xdef... --rent realtime\n" +
			"  realt portfolio 0xabc... 0xdef...",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.PortfolioInput{
				Addresses: append(addresses, args...),
				RentMode:  types.RentCalculation(rentMode),
			}
			if asOf != "" {
				t, err := time.Parse("2006-01-02", asOf)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
				input.AsOf = t
			}

			a, ctx, err := buildApp(*ephemeral)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Portfolio.GetPortfolio(ctx, input)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringSliceVarP(&addresses, "address", "a", nil, "Wallet address, repeatable or comma separated")
	cmd.Flags().StringVar(&rentMode, "rent", string(types.RentGlobal), "Rent calculation: global or realtime")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference date for realtime rent (default today)")
	return cmd
}

func newMarketCmd(ephemeral *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show the secondary market divergence of every traded realtoken",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := buildApp(*ephemeral)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Market == nil {
				return fmt.Errorf("no trade statistics source: set CLICKHOUSE_HOST or MARKET_STATISTICS_URL")
			}
			rows, err := a.Market.GetDivergence(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the stored reference catalog",
	}

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Download the catalog and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := buildApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			assets, err := a.Catalog.Refresh(ctx)
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Infof("Stored %d realtokens", len(assets))
			return nil
		},
	})
	return catalogCmd
}
