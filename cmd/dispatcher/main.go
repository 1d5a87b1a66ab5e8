package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trendvane/siftcore/internal/config"
	"github.com/trendvane/siftcore/internal/dispatcher"
	"github.com/trendvane/siftcore/internal/ingest"
	"github.com/trendvane/siftcore/internal/logging"
	"github.com/trendvane/siftcore/internal/observability"
	"github.com/trendvane/siftcore/internal/store"
	"github.com/trendvane/siftcore/internal/transport"
)

var (
	cfgFile     string
	localFlag   bool
	exitFlag    bool
	skipRecover bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "siftcore-dispatcher",
		Short: "Dispatcher — claims requests, fetches them, and ingests the results",
		Long: `The dispatcher is a persistent job-queue consumer: it locks work atomically
against the relational store, fans out over a pool of fetch transports, rate-limits
its aggregate request rate, and guarantees exactly-once ingestion of any
successfully fetched payload.`,
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.Flags().BoolVar(&localFlag, "local", false, "use one in-process local transport, ignoring the configured transport list")
	rootCmd.Flags().BoolVar(&exitFlag, "exit", false, "stop once the queue drains instead of idling")
	rootCmd.Flags().BoolVar(&skipRecover, "skip-recovery", false, "skip the startup staging-recovery prompt")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Dispatcher.Local = cfg.Dispatcher.Local || localFlag
	cfg.Dispatcher.ExitWhenIdle = cfg.Dispatcher.ExitWhenIdle || exitFlag

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	st, err := store.Open(context.Background(), cfg.Store.DSN, cfg.Store.MaxConns, cfg.Store.MinConns)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	pool, err := buildPool(cfg)
	if err != nil {
		return fmt.Errorf("build transport pool: %w", err)
	}

	pipeline := ingest.New(st, logger)

	if !skipRecover {
		err := dispatcher.RecoverStaging(context.Background(), st, pipeline, func(prompt string) bool {
			return dispatcher.Confirm(bufio.NewReader(os.Stdin), os.Stdout, prompt)
		}, logger)
		if err != nil {
			return fmt.Errorf("staging recovery: %w", err)
		}
	}

	d := dispatcher.New(st, pool, pipeline, cfg.Dispatcher.MaterializeLag, cfg.Rate.ExtraSeconds, cfg.Dispatcher.IdlePollDelay, cfg.Dispatcher.ExitWhenIdle, logger)

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.SetStatsSource(d.Stats().Snapshot)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	logger.Info("dispatcher starting", "local", cfg.Dispatcher.Local, "exit_when_idle", cfg.Dispatcher.ExitWhenIdle, "transports", pool.Len())

	if err := d.Run(ctx); err != nil {
		logger.Error("dispatcher crashed", "error", err)
		return err
	}

	logger.Info("dispatcher stopped cleanly", "stats", d.Stats().Snapshot())
	return nil
}

func buildPool(cfg *config.Config) (*transport.Pool, error) {
	if cfg.Dispatcher.Local {
		return transport.NewPool([]transport.Transport{
			transport.NewLocalTransport(cfg.Dispatcher.LocalScript),
		}), nil
	}
	return transport.BuildFromConfig(cfg.Transports)
}
