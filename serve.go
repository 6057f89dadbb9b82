package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/isdelr/tasker-be/internal/api"
	"github.com/isdelr/tasker-be/internal/auth"
	"github.com/isdelr/tasker-be/internal/config"
	"github.com/isdelr/tasker-be/internal/database"
	"github.com/isdelr/tasker-be/internal/metrics"
	"github.com/isdelr/tasker-be/internal/monitoring"
	"github.com/isdelr/tasker-be/internal/scheduler"
	"github.com/isdelr/tasker-be/internal/services"
	"github.com/isdelr/tasker-be/internal/store"
	"github.com/isdelr/tasker-be/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Apply pending migrations, then serve the HTTP API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")

	return cmd
}

func runServe(parent context.Context, skipMigrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up database
	pool, err := database.Connect(ctx, dbOptions(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if !skipMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// Set up stores and services
	sessionStore := store.NewSessionStore(pool, cfg.SessionTTL)
	issuer := auth.NewIssuer(sessionStore, auth.IssuerConfig{
		CookieName: cfg.SessionCookieName,
		Secret:     []byte(cfg.SessionSecret),
		TTL:        cfg.SessionTTL,
		Secure:     cfg.CookieSecure,
	})
	guard := auth.NewGuard(issuer, sessionStore)
	userService := services.NewUserService(store.NewUserStore(pool), auth.NewArgon2idHasher())
	taskService := services.NewTaskService(store.NewTaskStore(pool), hub)

	// Set up and run the background scheduler
	purger, err := scheduler.New(cfg.SessionPurgeSchedule, sessionStore)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("schedule", cfg.SessionPurgeSchedule).Wrap(err)
	}
	purger.Start()
	defer purger.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(monitoring.FromPool(pool), hub, monitoring.DefaultInterval)
	go statUpdater.Run()
	defer statUpdater.Stop()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:          userService,
		Tasks:          taskService,
		Sessions:       issuer,
		Guard:          guard.Require,
		Credentials:    guard,
		Hub:            hub,
		DB:             pool,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

func dbOptions(cfg *config.Config) database.Options {
	return database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		Retries:  cfg.DBConnectRetries,
		Backoff:  cfg.DBConnectBackoff,
	}
}
