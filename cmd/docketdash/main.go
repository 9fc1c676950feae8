package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/cache"
	"github.com/JustJay7/docket-dashboard/internal/config"
	"github.com/JustJay7/docket-dashboard/internal/dashboard"
	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/internal/server"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "docketdash",
	Short: "Court docket analytics: ingest CourtListener exports and serve aggregates",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log, err = logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		store, err := analytics.NewStore(db, log)
		if err != nil {
			return err
		}
		renderCache := cache.NewCache[*dashboard.View](cfg.CacheSize, cfg.CacheTTL)
		dash := dashboard.NewService(store, renderCache, log, dashboard.Options{
			TopN:      cfg.DefaultTopN,
			MaxGroups: cfg.MaxGroups,
		})

		log.Info("Starting Docket Dashboard",
			"host", cfg.Host,
			"port", cfg.Port,
			"driver", cfg.DatabaseDriver,
		)
		return server.New(cfg, db, dash, log).Run(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the cases table and its indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		log.Info("Database migrations completed successfully", "driver", cfg.DatabaseDriver)
		return nil
	},
}

func openDB() (*gorm.DB, error) {
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, ingestCmd, nosCmd, reportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
