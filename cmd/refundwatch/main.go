package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"refundwatch/internal/browser"
	"refundwatch/internal/config"
	"refundwatch/internal/portal"
	"refundwatch/internal/reconcile"
	"refundwatch/internal/resolver"
	"refundwatch/internal/retry"
	"refundwatch/internal/sheet"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgPath  string
	verbose  bool
	dryRun   bool
	headless bool

	// Logger
	logger *zap.Logger
)

// rootCmd runs the reconciliation loop by default.
var rootCmd = &cobra.Command{
	Use:   "refundwatch",
	Short: "Fills return/refund case details into the order-tracking sheet",
	Long: `refundwatch watches a Google Sheet of order numbers and resolves each
one against the configured seller-portal stores, using the operator's
already-authenticated Chrome sessions. Resolved case details are written
back to columns B..Q; orders no store knows get a NOT FOUND marker.

Sessions must be logged in beforehand; refundwatch never authenticates.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatcher(cmd.Context())
	},
}

// checkCmd is the operator smoke test: validate config and probe every
// store's debug endpoint once without touching the sheet.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and probe each store's debug endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("config ok: %d store(s), sheet %s tab %q\n",
			len(cfg.Stores), cfg.SheetID, cfg.SheetName)
		for _, st := range cfg.Stores {
			port := st.EffectivePort(cfg.Headless, cfg.HeadlessPortOffset)
			if _, err := launcher.ResolveURL(fmt.Sprintf("127.0.0.1:%d", port)); err != nil {
				fmt.Printf("%-8s port %-6d unreachable: %v\n", st.Code, port, err)
				continue
			}
			fmt.Printf("%-8s port %-6d ok\n", st.Code, port)
		}
		return nil
	},
}

func runWatcher(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := sheet.NewClient(ctx, cfg.SheetID, cfg.SheetName, cfg.CredentialsFile)
	if err != nil {
		return err
	}
	logger.Info("sheet bound", zap.String("sheet", cfg.SheetID), zap.String("tab", cfg.SheetName))

	policy := retry.New(cfg.MaxRetries, cfg.Backoff())
	registry := browser.NewRegistry(cfg, logger)
	locator := browser.NewLocator(logger)
	executor := portal.NewExecutor(policy, logger)
	res := resolver.New(registry, locator, executor, cfg.Stores, logger)
	loop := reconcile.NewLoop(st, res, cfg, logger)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped by user")
		return nil
	}
	return err
}

// loadConfig overlays the config file and flags. A malformed config file
// logs a warning and falls back to defaults rather than aborting.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config file unusable, using defaults", zap.String("path", cfgPath), zap.Error(err))
		cfg = config.Default()
	}
	if dryRun {
		cfg.DryRun = true
	}
	if headless {
		cfg.Headless = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "refundwatch.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute updates but never write them")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "launch store browsers headless")
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
