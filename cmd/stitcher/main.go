package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/trendvane/siftcore/internal/config"
	"github.com/trendvane/siftcore/internal/logging"
	"github.com/trendvane/siftcore/internal/stitch"
	"github.com/trendvane/siftcore/internal/store"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "siftcore-stitcher [keyword-id]",
		Short: "Stitcher — reassembles completed requests into one analytics series per keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	kid := int64(1)
	if len(args) == 1 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid keyword id %q: %w", args[0], err)
		}
		kid = parsed
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	st, err := store.Open(context.Background(), cfg.Store.DSN, cfg.Store.MaxConns, cfg.Store.MinConns)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	analytics, err := stitch.OpenAnalyticsDB(cfg.Stitch.AnalyticsDBPath)
	if err != nil {
		return fmt.Errorf("open analytics db: %w", err)
	}
	defer analytics.Close()

	engine := stitch.New(st, cfg.Stitch.MaxConcurrency, logger)

	logger.Info("stitching keyword", "keyword", kid)
	rows, err := engine.StitchKeyword(context.Background(), kid)
	if err != nil {
		return fmt.Errorf("stitch keyword %d: %w", kid, err)
	}

	if err := analytics.Write(rows); err != nil {
		return fmt.Errorf("write analytics rows: %w", err)
	}

	logger.Info("stitching complete", "keyword", kid, "rows", len(rows), "db", cfg.Stitch.AnalyticsDBPath)
	return nil
}
