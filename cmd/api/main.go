// @title pet-care-reminders API
// @version 1.0
// @description Mascotas, vacunas, desparasitaciones, recordatorios, peso y línea de tiempo.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-care-reminders/internal/adapters/auth/odin"
	pg "pet-care-reminders/internal/adapters/storage/postgres"
	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/config"
	"pet-care-reminders/internal/platform/logger"
	"pet-care-reminders/internal/platform/tracing"
	"pet-care-reminders/internal/ports/auth"
	"pet-care-reminders/internal/router"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "API de recordatorios de cuidado de mascotas",
	// Sin subcomando => serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el servidor HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migraciones de Postgres",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica las migraciones pendientes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := pg.MigrateUp(db); err != nil {
			return err
		}
		v, dirty, err := pg.SchemaVersion(db)
		if err != nil {
			return err
		}
		log.Info("migrations applied", map[string]any{"version": v, "dirty": dirty})
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión actual del esquema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		v, dirty, err := pg.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("APP_CONFIG"), "archivo TOML de configuración")

	migrateCmd.AddCommand(migrateUpCmd, migrateVersionCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	return cfg, log, nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn (DB_DSN) is required")
	}
	return pg.Open(cfg.Database.DSN)
}

func serve(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Endpoint: cfg.Tracing.OTLPEndpoint,
		Insecure: cfg.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	opts := router.Options{
		Logger:      log,
		Location:    loc,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	if cfg.Database.DSN != "" {
		db, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := pg.MigrateUp(db); err != nil {
				return err
			}
		}
		opts.DB = db
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	opts.AuthVerifier, err = newVerifier(cfg)
	if err != nil {
		return err
	}
	if opts.AuthVerifier == nil {
		log.Warn("odin not configured, accepting X-Debug-User-ID (dev mode)", nil)
	}

	if opts.RateLimiter != nil {
		go sweep(ctx, opts.RateLimiter)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Server.Addr, "timezone": loc.String()})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier devuelve nil (modo dev) si Odin no está configurado.
func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	client, err := odin.NewClient(odin.Config{
		BaseURL: cfg.Auth.OdinBaseURL,
		APIKey:  cfg.Auth.OdinAPIKey,
		Timeout: cfg.Auth.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	if !client.IsConfigured() {
		return nil, nil
	}
	return odin.NewVerifier(client), nil
}

func sweep(ctx context.Context, rl *middleware.RateLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Cleanup(10 * time.Minute)
		}
	}
}
