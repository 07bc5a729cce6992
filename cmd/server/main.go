/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the policy data service, loads sample datasets and
  issues development tokens. Handles configuration, dependency injection,
  and graceful shutdown.

COMMANDS:
  cims serve             Start the HTTP server (default command)
  cims seed --scenario   Reset the database and load a sample dataset
  cims token --email     Issue a client token signed with the configured key

GLOBAL FLAGS:
  --config   TOML configuration file (default: cims.toml, optional)
  --db       SQLite database path, overrides the configuration
             Use ":memory:" for an in-memory database
  --verbose  Debug logging

STARTUP SEQUENCE (serve):
  1. Load configuration (file, then CIMS_* environment variables)
  2. Initialize SQLite store
  3. Build metrics, report client and service
  4. Configure HTTP router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_seconds)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./cims serve --db ./data/cims.db

  # Load a sample dataset and get an agent token
  ./cims seed --scenario multi-county
  ./cims token --email mary.jones@highplains.example.com

SEE ALSO:
  - config/config.go: Configuration keys and environment overrides
  - api/server.go: Router configuration
  - service/service.go: Service operations
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/wsr/cims/access"
	"github.com/wsr/cims/api"
	"github.com/wsr/cims/config"
	"github.com/wsr/cims/logging"
	"github.com/wsr/cims/metrics"
	"github.com/wsr/cims/report"
	"github.com/wsr/cims/service"
	"github.com/wsr/cims/store/sqlite"
	"go.uber.org/zap"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cims",
	Short: "Crop insurance policy data service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var seedScenario string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database and load a sample dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := api.ScenarioDataset(seedScenario)
		if !ok {
			var ids []string
			for _, s := range api.Scenarios() {
				ids = append(ids, s.ID)
			}
			return fmt.Errorf("unknown scenario %q (available: %v)", seedScenario, ids)
		}

		store, err := openStore(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		if err := store.Import(ctx, d); err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		logger.Info("scenario loaded",
			zap.String("scenario", seedScenario),
			zap.String("db", cfg.Database.Path),
			zap.Int("records", d.Size()))
		return nil
	},
}

var (
	tokenEmail string
	tokenAdmin bool
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a client token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Auth.Enabled() {
			return errors.New("auth.signing_key (or CIMS_JWT_SIGNING_KEY) is not set")
		}
		tokens := access.NewTokenValidator(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		token, err := tokens.Issue(access.Client{Email: tokenEmail, IsAdmin: tokenAdmin}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "cims.toml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides configuration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	seedCmd.Flags().StringVar(&seedScenario, "scenario", "multi-county", "sample dataset to load")

	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "client e-mail")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "issue an administrator token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(serveCmd, seedCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func runServe(ctx context.Context) error {
	// Initialize store
	store, err := openStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Service
	reports := report.NewClient(cfg.Reports.BaseURL, cfg.Reports.APIKey, config.Duration(cfg.Reports.TimeoutSeconds), logger)
	svc := service.New(service.Config{
		Store:               store,
		Reports:             reports,
		Metrics:             m,
		Logger:              logger,
		ReferenceYear:       cfg.Lookup.ReferenceYear,
		EligibleCommodities: cfg.Lookup.EligibleCommodities,
	})

	// Initialize handler
	handler := api.NewHandler(svc, store, logger)
	handler.Metrics = m
	handler.Gatherer = reg
	handler.DevClient = access.Client{Email: cfg.Auth.DevEmail, IsAdmin: cfg.Auth.DevAdmin}
	if cfg.Auth.Enabled() {
		handler.Tokens = access.NewTokenValidator(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	} else {
		logger.Warn("auth.signing_key not set, requests run as the dev client",
			zap.String("email", cfg.Auth.DevEmail),
			zap.Bool("admin", cfg.Auth.DevAdmin))
	}

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeoutSeconds),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeoutSeconds),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db", cfg.Database.Path),
			zap.String("reference_year", svc.ReferenceYear()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.Duration(cfg.Server.ShutdownSeconds))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
