package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/credvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credvault/internal/adapter/driven/staging"
	"github.com/ericfisherdev/credvault/internal/adapter/driven/xlsx"
	httphandler "github.com/ericfisherdev/credvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/config"
	"github.com/ericfisherdev/credvault/internal/metrics"
	"github.com/ericfisherdev/credvault/internal/secret"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the HTTP API. Configuration is read from CREDVAULT_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"export_dir", cfg.ExportDir,
		"env", cfg.Env,
	)

	box, err := secret.NewBox(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Staging area and purger for export files.
	store, err := staging.NewStore(cfg.ExportDir)
	if err != nil {
		return err
	}
	purger, err := staging.NewPurger(store, cfg.ExportPurgeDelay, cfg.ExportRetention, slog.Default())
	if err != nil {
		return err
	}
	if err := purger.Start(); err != nil {
		return err
	}
	defer func() {
		if err := purger.Shutdown(); err != nil {
			slog.Error("purger shutdown error", "error", err)
		}
	}()

	// 6. Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 7. Wire adapters and services.
	credentialStore := sqliteadapter.NewCredentialRepo(db, box)
	directoryStore := sqliteadapter.NewDirectoryRepo(db)
	auditor := application.NewAuditor(sqliteadapter.NewAuditRepo(db), slog.Default())

	credentialSvc := application.NewCredentialService(credentialStore, directoryStore, auditor, slog.Default())
	directorySvc := application.NewDirectoryService(directoryStore, auditor)
	exportSvc := application.NewExportService(
		credentialStore,
		xlsx.NewRenderer("credvault"),
		store,
		purger,
		box,
		auditor,
		m,
		slog.Default(),
		cfg.ExportPasswordLength,
	)

	// 8. HTTP handler with auth, logging and metrics middleware.
	apiHandler := httphandler.NewHandler(credentialSvc, directorySvc, exportSvc, auditor, box, slog.Default(), cfg.IsDevelopment())
	handler := httphandler.NewServeMux(apiHandler, httphandler.NewAuthenticator(cfg.JWTSecret), reg, m, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("credvault started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
