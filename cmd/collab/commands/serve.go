package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"collab/internal/auth"
	"collab/internal/events"
	"collab/internal/features"
	"collab/internal/server"
	"collab/internal/storage/sqlite"
)

var (
	serveAddr   string
	serveDB     string
	serveStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the configured database and frontend.

Flags override the config file and COLLAB_* environment variables.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "path to the sqlite database file")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "directory with the built frontend")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.Database.Path = serveDB
	}
	if serveStatic != "" {
		cfg.HTTP.StaticDir = serveStatic
	}

	logger := newLogger()
	logger.Info("collab starting", slog.String("version", rootCmd.Version), slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	var publisher events.Publisher = hub
	if cfg.Redis.Addr != "" {
		broker, err := events.NewRedisBroker(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Namespace, hub, logger)
		if err != nil {
			return err
		}
		defer broker.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = broker.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		go func() {
			if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis subscription stopped", slog.String("error", err.Error()))
			}
		}()
		publisher = broker
		logger.Info("board events fan out through redis", slog.String("addr", cfg.Redis.Addr))
	}

	srv := server.New(store, logger, server.Options{
		StaticDir:      cfg.HTTP.StaticDir,
		Tokens:         tokens,
		Flags:          features.Defaults(cfg.Features.AllowSignUp),
		Hub:            hub,
		Publisher:      publisher,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		SecureCookie:   cfg.Auth.SecureCookie,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
	return nil
}
