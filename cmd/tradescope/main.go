// Tradescope — personal trade journal with live forex market data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vealko/tradescope/api"
	"github.com/vealko/tradescope/internal/config"
	"github.com/vealko/tradescope/internal/journal"
	"github.com/vealko/tradescope/internal/market"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradescope",
	Short: "Tradescope — trade journal with live forex market data",
	Long: `Tradescope keeps a personal trade journal next to the market context
that produced each trade: scraped ForexFactory news, the weekly economic
calendar, and exchange candle data.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file in the working directory is optional.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Tradescope %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := journal.Open(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()

		svc := market.NewService(market.ServiceConfig{
			NewsTTL:     time.Duration(cfg.Market.NewsTTL) * time.Second,
			CalendarTTL: time.Duration(cfg.Market.CalendarTTL) * time.Second,
			CandlesTTL:  time.Duration(cfg.Market.CandlesTTL) * time.Second,
			NewsLimit:   cfg.Market.NewsLimit,
		})

		srv := api.NewServer(cfg, svc, store)

		fmt.Printf("Starting Tradescope API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and journal summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Tradescope — Status")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Printf("  API Server:  %s\n", cfg.API.Addr())
		fmt.Printf("  Journal DB:  %s\n", cfg.Journal.DBPath)
		fmt.Printf("  News TTL:    %ds\n", cfg.Market.NewsTTL)
		fmt.Printf("  Candles TTL: %ds\n", cfg.Market.CandlesTTL)

		store, err := journal.Open(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()

		trades, err := store.ListTrades(context.Background(), journal.Filter{})
		if err != nil {
			return err
		}
		fmt.Printf("  Trades:      %d\n", len(trades))
		return nil
	},
}

// --- Stats Command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print journal win/loss statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := journal.Open(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Trades:    %d (%d wins, %d losses)\n", stats.Total, stats.Wins, stats.Losses)
		fmt.Printf("Win rate:  %.2f%%\n", stats.WinRate)
		fmt.Printf("Avg RR:    %.2f\n", stats.AvgRR)
		fmt.Printf("Avg risk:  %.2f%%\n", stats.AvgRiskPct)
		for _, b := range stats.ByType {
			fmt.Printf("  %-8s %d trades, %.2f%% win rate, %.2f avg RR\n", b.Key, b.Total, b.WinRate, b.AvgRR)
		}
		for _, b := range stats.ByDirection {
			fmt.Printf("  %-8s %d trades, %.2f%% win rate, %.2f avg RR\n", b.Key, b.Total, b.WinRate, b.AvgRR)
		}
		return nil
	},
}
