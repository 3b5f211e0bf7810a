package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
	"github.com/good-yellow-bee/marketwatch/internal/api"
	"github.com/good-yellow-bee/marketwatch/internal/market"
	"github.com/good-yellow-bee/marketwatch/internal/notifier"
	"github.com/good-yellow-bee/marketwatch/internal/storage"
	"github.com/good-yellow-bee/marketwatch/pkg/config"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "marketwatch",
	Short: "MarketWatch - Market alerting daemon",
	Long: `MarketWatch polls a market data endpoint, evaluates stored alert
rules against the latest trade snapshots, and delivers notifications
when a rule triggers.`,
	RunE: runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketwatch %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "marketwatch.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("starting marketwatch %s", config.Version)

	// Storage
	db := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := db.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Alert store
	store := alerting.NewStore(db)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load alert state: %w", err)
	}
	defer store.Close()

	// Seeded definitions
	if cfg.Alerts.File != "" {
		defs, err := alerting.LoadDefinitionsFromFile(cfg.Alerts.File)
		if err != nil {
			return fmt.Errorf("load alerts file: %w", err)
		}
		if err := store.SyncSeeded(defs); err != nil {
			return fmt.Errorf("sync seeded alerts: %w", err)
		}
		log.Printf("seeded %d alert definitions from %s", len(defs), cfg.Alerts.File)
	}

	// Notification channels
	dispatcher := notifier.NewDispatcherWithRateLimit(store, notifier.RateLimitConfig{
		MaxPerWindow: cfg.Alerts.RateLimitPerMin,
		Window:       time.Minute,
		Enabled:      true,
	})
	defer dispatcher.Close()
	registerChannels(dispatcher, store, cfg)

	// Evaluator
	opts := alerting.DefaultOptions()
	opts.DropRatio = cfg.Alerts.DropRatio
	opts.RiseRatio = cfg.Alerts.RiseRatio
	opts.UndercutRatio = cfg.Alerts.UndercutRatio
	opts.DefaultVolumeMultiplier = cfg.Alerts.VolumeMultiple
	engine := alerting.NewEngine(store, dispatcher, opts)

	// Market data source
	client, err := market.NewClient(market.ClientConfig{
		BaseURL:        cfg.Market.URL,
		Timeout:        cfg.Market.RequestTimeout,
		RequestsPerSec: cfg.Market.RequestsPerSec,
	})
	if err != nil {
		return fmt.Errorf("create market client: %w", err)
	}
	poller := market.NewPoller(client, engine, market.PollerConfig{
		Interval: cfg.Market.PollInterval,
	})

	// HTTP API
	apiServer, err := api.New(&api.Config{
		Address: cfg.Server.Address,
		Verbose: verbose,
	}, store)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	apiServer.RegisterDBChecker(db.DB())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Run(ctx)
	})
	g.Go(func() error {
		err := poller.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	if cfg.Alerts.WatchFile {
		g.Go(func() error {
			return alerting.WatchDefinitions(ctx, cfg.Alerts.File, store)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Printf("marketwatch stopped")
	return nil
}

// registerChannels wires the configured notification channels into the
// dispatcher. A channel that fails to initialize is skipped with a warning
// so the daemon still runs headless.
func registerChannels(d *notifier.Dispatcher, settings notifier.SettingsSource, cfg *Config) {
	if cfg.Notifiers.Desktop {
		n, err := notifier.NewDesktopNotifier(settings)
		if err != nil {
			log.Printf("warning: desktop notifications disabled: %v", err)
		} else {
			d.Register(n)
		}
	}
	if cfg.Notifiers.Sound {
		n, err := notifier.NewSoundNotifier(settings)
		if err != nil {
			log.Printf("warning: sound alerts disabled: %v", err)
		} else {
			d.Register(n)
		}
	}
	if cfg.Notifiers.WebhookURL != "" {
		n, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{URL: cfg.Notifiers.WebhookURL})
		if err != nil {
			log.Printf("warning: webhook notifications disabled: %v", err)
		} else {
			d.Register(n)
		}
	}
}
